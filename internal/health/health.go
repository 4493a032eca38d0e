// Package health samples host resource usage (CPU, memory, goroutines) and
// exposes it as a JSON HTTP endpoint and as an attribute string embedded in
// the INFO CAPABILITIES XML report's host-stats line. It is read-only host
// introspection: nothing here feeds back into the protocol.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one point-in-time host reading.
type Snapshot struct {
	SampledAt   time.Time `json:"sampled_at"`
	CPUPercent  float64   `json:"cpu_percent"`
	MemUsedMB   float64   `json:"mem_used_mb"`
	MemTotalMB  float64   `json:"mem_total_mb"`
	Load1       float64   `json:"load1"`
	Goroutines  int       `json:"goroutines"`
	Connections int       `json:"connections"`
}

// ConnectionsFunc reports the current active connection count; normally
// *server.Registry.Count.
type ConnectionsFunc func() int

// Sampler holds the last host snapshot and refreshes it on demand.
type Sampler struct {
	connections ConnectionsFunc

	mu   sync.RWMutex
	last Snapshot
}

// NewSampler constructs a Sampler. connections may be nil, in which case
// Connections is always reported as 0.
func NewSampler(connections ConnectionsFunc) *Sampler {
	if connections == nil {
		connections = func() int { return 0 }
	}
	return &Sampler{connections: connections}
}

// Refresh samples gopsutil's CPU/memory/load views and runtime.NumGoroutine,
// replacing the cached snapshot. cpu.PercentWithContext is called with a
// zero interval, which reports usage since the previous call rather than
// blocking the caller for a sampling window.
func (s *Sampler) Refresh(ctx context.Context) error {
	snap := Snapshot{SampledAt: time.Now(), Goroutines: runtime.NumGoroutine(), Connections: s.connections()}

	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		snap.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemUsedMB = float64(vm.Used) / 1024 / 1024
		snap.MemTotalMB = float64(vm.Total) / 1024 / 1024
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		snap.Load1 = avg.Load1
	}

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
	return nil
}

// Snapshot returns the last refreshed reading. Zero value until the first
// Refresh call completes.
func (s *Sampler) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Run refreshes the snapshot every interval until ctx is canceled. Intended
// to run as a single background goroutine for the process lifetime.
func (s *Sampler) Run(ctx context.Context, interval time.Duration) {
	_ = s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// Handler serves the last snapshot as JSON on /health.
func (s *Sampler) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Snapshot())
	})
}

// CapabilityAttrs renders the last snapshot as XML attribute text for the
// INFO CAPABILITIES host-stats line, e.g.
// `cpu_percent="4.1" mem_used_mb="812.3" goroutines="37" connections="2"`.
func (s *Sampler) CapabilityAttrs() string {
	snap := s.Snapshot()
	return fmt.Sprintf("cpu_percent=%q mem_used_mb=%q goroutines=%q connections=%q",
		fmt.Sprintf("%.1f", snap.CPUPercent),
		fmt.Sprintf("%.1f", snap.MemUsedMB),
		fmt.Sprintf("%d", snap.Goroutines),
		fmt.Sprintf("%d", snap.Connections),
	)
}
