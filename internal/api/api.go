// Package api wires the daemon's method surface onto the scheduler,
// the executor backend and the settings store.
package api

import (
	"github.com/coursedl/coursedl/common"
	"github.com/coursedl/coursedl/internal/config"
	"github.com/coursedl/coursedl/internal/server"
	"github.com/coursedl/coursedl/pkg/courselib"
	"github.com/coursedl/coursedl/pkg/logger"
)

type Api struct {
	log      logger.Logger
	sched    *courselib.Scheduler
	backend  courselib.Backend
	store    *config.Store
	pool     *server.Pool
	notifier *server.RPCNotifier
	version  string

	// shutdown stops the daemon; installed by the daemon bootstrap.
	shutdown func()
}

func NewApi(l logger.Logger, sched *courselib.Scheduler, backend courselib.Backend, store *config.Store, pool *server.Pool, notifier *server.RPCNotifier, version string) (*Api, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Api{
		log:      l,
		sched:    sched,
		backend:  backend,
		store:    store,
		pool:     pool,
		notifier: notifier,
		version:  version,
	}, nil
}

// SetShutdown installs the function the stop method calls.
func (s *Api) SetShutdown(fn func()) {
	s.shutdown = fn
}

func (s *Api) RegisterHandlers(server *server.Server) {
	// task methods
	server.RegisterHandler(common.UPDATE_ADD_FILE, s.addFileHandler)
	server.RegisterHandler(common.UPDATE_ADD_SLIDES, s.addSlidesHandler)
	server.RegisterHandler(common.UPDATE_CANCEL, s.cancelHandler)
	server.RegisterHandler(common.UPDATE_CANCEL_ALL, s.cancelAllHandler)
	server.RegisterHandler(common.UPDATE_REDOWNLOAD, s.redownloadHandler)
	server.RegisterHandler(common.UPDATE_REDOWNLOAD_ALL, s.redownloadAllHandler)
	server.RegisterHandler(common.UPDATE_LIST, s.listHandler)
	server.RegisterHandler(common.UPDATE_COUNT, s.countHandler)
	server.RegisterHandler(common.UPDATE_EXISTS_FILE, s.existsFileHandler)
	server.RegisterHandler(common.UPDATE_EXISTS_SLIDES, s.existsSlidesHandler)
	server.RegisterHandler(common.UPDATE_OPEN, s.openHandler)
	server.RegisterHandler(common.UPDATE_CLEAN_UP, s.cleanUpHandler)
	server.RegisterHandler(common.UPDATE_ATTACH, s.attachHandler)

	// daemon methods
	server.RegisterHandler(common.UPDATE_GET_CONFIG, s.getConfigHandler)
	server.RegisterHandler(common.UPDATE_SET_CONFIG, s.setConfigHandler)
	server.RegisterHandler(common.UPDATE_STOP, s.stopHandler)
}

func (s *Api) Close() error {
	s.sched.CleanUp()
	return s.store.Close()
}

var _ server.TaskService = (*Api)(nil)

// snapshotByID returns the task's current snapshot, or ErrTaskNotFound.
func (s *Api) snapshotByID(id string) (courselib.TaskSnapshot, error) {
	for _, t := range s.sched.GetTasks() {
		if t.ID() == id {
			return t.Snapshot(), nil
		}
	}
	return courselib.TaskSnapshot{}, courselib.ErrTaskNotFound
}
