package server

import (
	"net"
	"sync"

	"github.com/coursedl/coursedl/pkg/logger"
)

// Pool tracks which client connections are attached to which task so
// progress updates reach every watcher of that task. The empty uid ""
// is the firehose: connections attached to it receive every broadcast.
type Pool struct {
	mu  sync.RWMutex
	m   map[string][]net.Conn
	log logger.Logger
}

func NewPool(l logger.Logger) *Pool {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Pool{
		m:   make(map[string][]net.Conn),
		log: l,
	}
}

// AddTask registers a task id, optionally with an initial watcher.
func (p *Pool) AddTask(uid string, conn net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn == nil {
		p.m[uid] = []net.Conn{}
		return
	}
	p.m[uid] = []net.Conn{conn}
}

// AddConnections attaches extra watchers to a task id.
func (p *Pool) AddConnections(uid string, conns []net.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[uid] = append(p.m[uid], conns...)
}

// HasTask reports whether any state is tracked for the task id.
func (p *Pool) HasTask(uid string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.m[uid]
	return ok
}

// RemoveTask drops a task id and closes its watchers.
func (p *Pool) RemoveTask(uid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.m[uid] {
		_ = conn.Close()
	}
	delete(p.m, uid)
}

// Broadcast writes a frame to every watcher of the task id plus every
// firehose watcher. Connections that fail to accept the frame are
// dropped from the pool.
func (p *Pool) Broadcast(uid string, data []byte) {
	head := intToBytes(uint32(len(data)))

	p.mu.RLock()
	conns := make([]net.Conn, 0, len(p.m[uid])+len(p.m[""]))
	conns = append(conns, p.m[uid]...)
	if uid != "" {
		conns = append(conns, p.m[""]...)
	}
	p.mu.RUnlock()

	var dead []net.Conn
	for _, conn := range conns {
		if _, err := conn.Write(head); err != nil {
			dead = append(dead, conn)
			continue
		}
		if _, err := conn.Write(data); err != nil {
			dead = append(dead, conn)
		}
	}
	if len(dead) > 0 {
		p.removeConns(dead)
	}
}

func (p *Pool) removeConns(dead []net.Conn) {
	gone := make(map[net.Conn]bool, len(dead))
	for _, conn := range dead {
		gone[conn] = true
		_ = conn.Close()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for uid, conns := range p.m {
		kept := conns[:0]
		for _, conn := range conns {
			if !gone[conn] {
				kept = append(kept, conn)
			}
		}
		if len(kept) != len(conns) {
			p.log.Info("pool: dropped %d dead watcher(s) for %q", len(conns)-len(kept), uid)
		}
		p.m[uid] = kept
	}
}
