package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/pkg/logger"
)

// JSON-RPC error codes for task operations.
const (
	codeTaskNotFound  = jrpc2.Code(-32001)
	codeInvalidParams = jrpc2.Code(-32602)
)

// TaskService is the operation surface the RPC methods call into. The
// daemon's api layer implements it.
type TaskService interface {
	AddFile(p *common.AddFileParams) (*common.AddResponse, error)
	AddSlides(p *common.AddSlidesParams) (*common.AddResponse, error)
	Cancel(id string) error
	CancelAll()
	Redownload(id string) error
	RedownloadAll()
	Tasks() *common.ListResponse
	Count() int
	SetMaxConcurrent(n int) error
}

// RPCConfig holds configuration for the JSON-RPC endpoint.
type RPCConfig struct {
	Secret    string // auth token, empty means RPC disabled
	ListenAll bool   // bind 0.0.0.0 instead of 127.0.0.1
	Version   string
}

// RPCServer bridges JSON-RPC 2.0 over HTTP POST (/rpc) and WebSocket
// (/ws) onto the task service. WebSocket sessions additionally receive
// push notifications through the notifier.
type RPCServer struct {
	secret    string
	listenAll bool
	version   string
	port      int
	log       logger.Logger
	service   TaskService
	notifier  *RPCNotifier
	methods   handler.Map
	bridge    jhttp.Bridge
	server    *http.Server
}

// VersionResult is the response for system.getVersion.
type VersionResult struct {
	Version string `json:"version"`
}

// ConcurrencyParams is the input for config.setConcurrency.
type ConcurrencyParams struct {
	MaxConcurrent int `json:"max_concurrent"`
}

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// NewRPCServer builds the RPC bridge on the given port.
func NewRPCServer(cfg *RPCConfig, svc TaskService, notifier *RPCNotifier, l logger.Logger, port int) *RPCServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	rs := &RPCServer{
		secret:    cfg.Secret,
		listenAll: cfg.ListenAll,
		version:   cfg.Version,
		port:      port,
		log:       l,
		service:   svc,
		notifier:  notifier,
	}
	rs.methods = handler.Map{
		"system.getVersion":     handler.New(rs.systemGetVersion),
		"task.addFile":          handler.New(rs.taskAddFile),
		"task.addSlides":        handler.New(rs.taskAddSlides),
		"task.cancel":           handler.New(rs.taskCancel),
		"task.cancelAll":        handler.New(rs.taskCancelAll),
		"task.retry":            handler.New(rs.taskRetry),
		"task.retryAll":         handler.New(rs.taskRetryAll),
		"task.list":             handler.New(rs.taskList),
		"task.count":            handler.New(rs.taskCount),
		"config.setConcurrency": handler.New(rs.configSetConcurrency),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{Version: rs.version}, nil
}

func (rs *RPCServer) taskAddFile(_ context.Context, p *common.AddFileParams) (*common.AddResponse, error) {
	if p.Upload.URL == "" {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: url"}
	}
	res, err := rs.service.AddFile(p)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return res, nil
}

func (rs *RPCServer) taskAddSlides(_ context.Context, p *common.AddSlidesParams) (*common.AddResponse, error) {
	if len(p.Subject.SlideURLs) == 0 {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: "missing required param: ppt_image_urls"}
	}
	res, err := rs.service.AddSlides(p)
	if err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return res, nil
}

func (rs *RPCServer) taskCancel(_ context.Context, p *common.TaskIDParams) (*EmptyResult, error) {
	if err := rs.service.Cancel(p.ID); err != nil {
		return nil, &jrpc2.Error{Code: codeTaskNotFound, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) taskCancelAll(_ context.Context) (*EmptyResult, error) {
	rs.service.CancelAll()
	return &EmptyResult{}, nil
}

func (rs *RPCServer) taskRetry(_ context.Context, p *common.TaskIDParams) (*EmptyResult, error) {
	if err := rs.service.Redownload(p.ID); err != nil {
		return nil, &jrpc2.Error{Code: codeTaskNotFound, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

func (rs *RPCServer) taskRetryAll(_ context.Context) (*EmptyResult, error) {
	rs.service.RedownloadAll()
	return &EmptyResult{}, nil
}

func (rs *RPCServer) taskList(_ context.Context) (*common.ListResponse, error) {
	return rs.service.Tasks(), nil
}

func (rs *RPCServer) taskCount(_ context.Context) (*common.CountResponse, error) {
	return &common.CountResponse{Count: rs.service.Count()}, nil
}

func (rs *RPCServer) configSetConcurrency(_ context.Context, p *ConcurrencyParams) (*EmptyResult, error) {
	if err := rs.service.SetMaxConcurrent(p.MaxConcurrent); err != nil {
		return nil, &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	}
	return &EmptyResult{}, nil
}

// Handler returns the HTTP handler serving /rpc and /ws behind token
// auth. Exposed for tests.
func (rs *RPCServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/rpc", requireToken(rs.secret, rs.bridge))
	mux.Handle("/ws", requireToken(rs.secret, http.HandlerFunc(rs.handleWS)))
	return mux
}

func (rs *RPCServer) addr() string {
	host := "127.0.0.1"
	if rs.listenAll {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", host, rs.port)
}

// Start serves the RPC endpoint and blocks. A server without a secret
// never listens: RPC requires explicit opt-in.
func (rs *RPCServer) Start() error {
	if rs.secret == "" {
		rs.log.Info("rpc: no secret configured, endpoint disabled")
		return nil
	}
	rs.server = &http.Server{
		Addr:    rs.addr(),
		Handler: rs.Handler(),
	}
	rs.log.Info("rpc: listening on %s", rs.server.Addr)
	err := rs.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and closes the jrpc2 bridge.
func (rs *RPCServer) Shutdown(ctx context.Context) error {
	var err error
	if rs.server != nil {
		err = rs.server.Shutdown(ctx)
	}
	rs.bridge.Close()
	return err
}
