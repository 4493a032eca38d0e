// Package server implements the SeedLink server side: per-connection
// handler state machine (§4.I), accept loop (§4.J), connection registry
// (§4.K), and INFO XML rendering (§4.L).
package server

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

// ConnectionInfo is a snapshot of one connection's registry metadata.
type ConnectionInfo struct {
	ID              uint64
	Addr            net.Addr
	ConnectedAt     time.Time
	ProtocolVersion wire.Version
	UserAgent       string
	State           string
	AuthSubject     string // set when AUTH carries a token the verifier accepts; informational only
}

// Registry is a thread-safe table of active connections, used to answer
// INFO CONNECTIONS (§4.L) and to drive the /health snapshot.
type Registry struct {
	nextID uint64 // atomic

	mu    sync.Mutex
	conns map[uint64]*ConnectionInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint64]*ConnectionInfo)}
}

// Register records a freshly-accepted connection and returns its ID.
func (r *Registry) Register(addr net.Addr) uint64 {
	id := atomic.AddUint64(&r.nextID, 1)
	info := &ConnectionInfo{
		ID:              id,
		Addr:            addr,
		ConnectedAt:     time.Now(),
		ProtocolVersion: wire.V3,
		State:           "Connected",
	}
	r.mu.Lock()
	r.conns[id] = info
	r.mu.Unlock()
	return id
}

// Unregister removes a connection. Unregistering an unknown ID is a no-op.
func (r *Registry) Unregister(id uint64) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Update mutates a connection's metadata in place. A no-op if id is unknown.
func (r *Registry) Update(id uint64, f func(*ConnectionInfo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.conns[id]; ok {
		f(info)
	}
}

// Snapshot returns a copy of every active connection's metadata.
func (r *Registry) Snapshot() []ConnectionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ConnectionInfo, 0, len(r.conns))
	for _, info := range r.conns {
		out = append(out, *info)
	}
	return out
}

// Count returns the number of active connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
