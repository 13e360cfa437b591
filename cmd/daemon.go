package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/api"
	"github.com/coursedl/coursedl/internal/config"
	"github.com/coursedl/coursedl/internal/executor"
	"github.com/coursedl/coursedl/internal/server"
	"github.com/coursedl/coursedl/pkg/courselib"
	"github.com/coursedl/coursedl/pkg/logger"
)

var (
	rpcSecret    string
	rpcListenAll bool
	daemonPort   int

	daemonFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "rpc-secret",
			Usage:       "bearer token for the JSON-RPC endpoint (endpoint stays disabled without it)",
			EnvVar:      "COURSEDL_RPC_SECRET",
			Destination: &rpcSecret,
		},
		cli.BoolFlag{
			Name:        "rpc-listen-all",
			Usage:       "bind the JSON-RPC endpoint to all interfaces instead of loopback",
			Destination: &rpcListenAll,
		},
		cli.IntFlag{
			Name:        "port",
			Usage:       "TCP fallback port for the client socket; JSON-RPC uses port+1",
			Value:       common.DefaultTCPPort,
			Destination: &daemonPort,
		},
	}
)

// daemonComponents holds the initialized daemon wiring so console mode
// and tests share one bootstrap path.
type daemonComponents struct {
	Store  *config.Store
	Sched  *courselib.Scheduler
	Api    *api.Api
	Server *server.Server
	log    logger.Logger
}

func (c *daemonComponents) Close() {
	c.log.Info("shutting down daemon")
	if c.Api != nil {
		_ = c.Api.Close()
	}
	c.log.Info("daemon stopped")
	_ = c.log.Close()
}

func initDaemonComponents(ctx context.Context, log logger.Logger) (*daemonComponents, error) {
	store, err := config.Open("")
	if err != nil {
		log.Error("settings store initialization failed: %v", err)
		return nil, err
	}
	settings, err := store.Settings()
	if err != nil {
		store.Close()
		return nil, err
	}

	sched := courselib.NewScheduler(ctx, settings.MaxConcurrent, log)

	// The executor emits into the api fan-out; the api is built right
	// after, so route through the captured pointer.
	var a *api.Api
	exec := executor.New(&http.Client{}, log, func(ev courselib.ProgressEvent) {
		if a != nil {
			a.OnEvent(ev)
		}
	})

	pool := server.NewPool(log)
	notifier := server.NewRPCNotifier(log)

	a, err = api.NewApi(log, sched, exec, store, pool, notifier, version)
	if err != nil {
		log.Error("api initialization failed: %v", err)
		store.Close()
		return nil, err
	}

	rpc := server.NewRPCServer(&server.RPCConfig{
		Secret:    rpcSecret,
		ListenAll: rpcListenAll,
		Version:   version,
	}, a, notifier, log, daemonPort+1)

	serv := server.NewServer(log, pool, rpc, daemonPort)
	a.RegisterHandlers(serv)

	return &daemonComponents{
		Store:  store,
		Sched:  sched,
		Api:    a,
		Server: serv,
		log:    log,
	}, nil
}

// daemon runs the coursed daemon in the foreground until interrupted
// or stopped through the client protocol.
func daemon(cctx *cli.Context) error {
	log := logger.NewLogrusLogger(logrus.StandardLogger())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := initDaemonComponents(ctx, log)
	if err != nil {
		printRuntimeErr(cctx, "daemon", "init", err)
		return err
	}
	defer c.Close()
	c.Api.SetShutdown(cancel)

	log.Info("coursed %s starting", version)
	return c.Server.Start(ctx)
}
