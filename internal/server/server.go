// Package server exposes the daemon over two transports: a
// length-prefixed JSON protocol on a Unix socket (with TCP fallback)
// for the bundled CLI, and a JSON-RPC 2.0 endpoint over HTTP and
// WebSocket for external integrations.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/pkg/logger"
)

// Server accepts CLI connections and dispatches requests to registered
// handlers by method name.
type Server struct {
	log      logger.Logger
	pool     *Pool
	rpc      *RPCServer
	handler  map[common.UpdateType]HandlerFunc
	port     int
	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a server listening on the Unix socket, falling back
// to TCP on port when the socket cannot be created. A non-nil rpc is
// started alongside on port+1.
func NewServer(l logger.Logger, pool *Pool, rpc *RPCServer, port int) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Server{
		log:     l,
		pool:    pool,
		rpc:     rpc,
		handler: make(map[common.UpdateType]HandlerFunc),
		port:    port,
	}
}

// Pool returns the connection pool the server broadcasts through.
func (s *Server) Pool() *Pool {
	return s.pool
}

// RegisterHandler associates a handler with a request method.
func (s *Server) RegisterHandler(method common.UpdateType, handler HandlerFunc) {
	s.handler[method] = handler
}

func (s *Server) createListener() (net.Listener, error) {
	path := socketPath()
	_ = os.Remove(path)
	l, err := net.ListenUnix("unix", &net.UnixAddr{
		Name: path,
		Net:  "unix",
	})
	if err != nil {
		s.log.Warning("unix socket unavailable (%v), falling back to tcp", err)
		tcpListener, tcpErr := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.port))
		if tcpErr != nil {
			return nil, fmt.Errorf("error listening: %w", tcpErr)
		}
		return tcpListener, nil
	}
	_ = os.Chmod(path, 0700)
	return l, nil
}

// Start begins accepting connections and blocks until the context is
// canceled. Each connection runs in its own goroutine.
func (s *Server) Start(ctx context.Context) error {
	if s.rpc != nil {
		go func() {
			if err := s.rpc.Start(); err != nil {
				s.log.Error("rpc server: %v", err)
			}
		}()
	}

	l, err := s.createListener()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.log.Error("accept: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

// Shutdown closes the listener, stops the RPC bridge and removes the
// socket file.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Error("close listener: %v", err)
		}
		s.listener = nil
	}

	if s.rpc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.rpc.Shutdown(ctx); err != nil {
			s.log.Error("rpc shutdown: %v", err)
		}
	}

	if err := os.Remove(socketPath()); err != nil && !os.IsNotExist(err) {
		s.log.Error("remove socket: %v", err)
	}
	return nil
}

func (s *Server) handleConnection(conn net.Conn) {
	sconn := NewSyncConn(conn)
	defer conn.Close()
	for {
		buf, err := sconn.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Error("read: %v", err)
			}
			return
		}
		if err = s.handlerWrapper(sconn, buf); err != nil {
			s.log.Error("handle: %v", err)
			return
		}
	}
}

func (s *Server) handlerWrapper(sconn *SyncConn, b []byte) error {
	req, err := ParseRequest(b)
	if err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	rHandler, ok := s.handler[req.Method]
	if !ok {
		if err := sconn.Write(CreateError("unknown method: " + string(req.Method))); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		return nil
	}
	utype, msg, err := rHandler(sconn, s.pool, req.Message)
	if err != nil {
		if err := sconn.Write(InitError(err)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		return nil
	}
	if err := sconn.Write(MakeResult(utype, msg)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
