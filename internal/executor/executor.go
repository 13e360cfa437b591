// Package executor implements the download execution service behind the
// scheduler: it performs the actual HTTP transfers, assembles slide PDFs
// and emits the progress event stream.
package executor

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/coursedl/coursedl/pkg/courselib"
	"github.com/coursedl/coursedl/pkg/logger"
)

const chunkSize = 32 * 1024

// EmitFunc receives every progress event the executor produces. The
// daemon fans events into the scheduler and the connection pool.
type EmitFunc func(ev courselib.ProgressEvent)

// Executor runs transfers in background goroutines and reports through
// progress events. Cancellation is a per-task atomic flag checked between
// chunks, so a cancel takes effect at the next chunk boundary.
type Executor struct {
	client *http.Client
	log    logger.Logger
	emit   EmitFunc
	states *courselib.VMap[string, *atomic.Bool]
}

// New creates an executor. A nil client falls back to http.DefaultClient
// and a nil emit discards events.
func New(client *http.Client, l logger.Logger, emit EmitFunc) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	if emit == nil {
		emit = func(courselib.ProgressEvent) {}
	}
	return &Executor{
		client: client,
		log:    l,
		emit:   emit,
		states: courselib.NewVMap[string, *atomic.Bool](),
	}
}

// Cancel flips the task's run flag. Best-effort: unknown ids are a
// no-op, and a transfer already past its last flag check finishes.
func (e *Executor) Cancel(_ context.Context, id string) error {
	if flag, ok := e.states.Get(id); ok {
		flag.Store(false)
	}
	return nil
}

// register creates the run flag for a starting task.
func (e *Executor) register(id string) *atomic.Bool {
	flag := new(atomic.Bool)
	flag.Store(true)
	e.states.Set(id, flag)
	return flag
}

// finish drops the run flag and emits the terminal event.
func (e *Executor) finish(id string, ev courselib.ProgressEvent) {
	e.states.Delete(id)
	e.emit(ev)
}

var _ courselib.Backend = (*Executor)(nil)
