package server

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"

	"github.com/coursedl/coursedl/pkg/courselib"
	"github.com/coursedl/coursedl/pkg/logger"
)

// RPCNotifier maintains the set of connected jrpc2 WebSocket sessions
// and broadcasts push notifications to all of them.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
}

func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
	}
}

// Register adds a session to the broadcast set.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a session from the broadcast set.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast sends a push notification to every registered session.
// Sessions that fail to receive are unregistered.
func (n *RPCNotifier) Broadcast(method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(context.Background(), method, params); err != nil {
			n.log.Warning("rpc push failed: %v", err)
			failed = append(failed, srv)
		}
	}
	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered sessions.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// TaskProgressNotification is pushed on every progress event.
type TaskProgressNotification struct {
	Event courselib.ProgressEvent `json:"event"`
	Task  courselib.TaskSnapshot  `json:"task"`
}

// TaskDoneNotification is pushed when a task reaches a terminal state.
type TaskDoneNotification struct {
	ID     string           `json:"id"`
	Status courselib.Status `json:"status"`
}
