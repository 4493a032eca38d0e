package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/luhtfiimanal/seedlink-go/internal/auth"
	"github.com/luhtfiimanal/seedlink-go/internal/health"
	"github.com/luhtfiimanal/seedlink-go/internal/metrics"
	"github.com/luhtfiimanal/seedlink-go/internal/ratelimit"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

// Listener is the accept loop of §4.J: it binds the listening socket, owns
// the shared store and connection registry, and fans a shutdown signal out
// to every spawned handler.
type Listener struct {
	addr     string
	store    *store.Store
	registry *Registry
	banner   Banner
	verifier *auth.Verifier
	limiter  *ratelimit.Limiter
	health   *health.Sampler
	metrics  *metrics.Registry
	log      zerolog.Logger

	ln       net.Listener
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewListener constructs a Listener bound to addr once Start is called.
// limiter and verifier may be nil to skip rate limiting and AUTH
// verification respectively; host-stats reporting is off until WithHealth
// attaches a sampler.
func NewListener(addr string, st *store.Store, reg *Registry, banner Banner, verifier *auth.Verifier, limiter *ratelimit.Limiter, log zerolog.Logger) *Listener {
	return &Listener{
		addr:     addr,
		store:    st,
		registry: reg,
		banner:   banner,
		verifier: verifier,
		limiter:  limiter,
		log:      log,
		shutdown: make(chan struct{}),
	}
}

// WithHealth attaches a host-stats sampler used to annotate INFO
// CAPABILITIES responses; it returns l for chaining.
func (l *Listener) WithHealth(sampler *health.Sampler) *Listener {
	l.health = sampler
	return l
}

// WithMetrics attaches a Prometheus registry; it returns l for chaining.
func (l *Listener) WithMetrics(reg *metrics.Registry) *Listener {
	l.metrics = reg
	return l
}

// Start binds the listening socket and begins accepting connections in a
// background goroutine. It returns once the socket is bound.
func (l *Listener) Start() error {
	if l.ln != nil {
		return errors.New("listener already started")
	}
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.ln = ln
	l.log.Info().Str("addr", l.addr).Msg("seedlink listener started")

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.acceptLoop()
	}()
	return nil
}

// Addr returns the bound listening address. Valid only after Start succeeds.
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Shutdown stops accepting new connections and signals every live handler's
// streaming loop to return, then waits for all of them to exit.
func (l *Listener) Shutdown() {
	close(l.shutdown)
	if l.ln != nil {
		_ = l.ln.Close()
	}
	l.wg.Wait()
}

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.shutdown:
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			l.log.Error().Err(err).Msg("accept error")
			if l.metrics != nil {
				l.metrics.AcceptErrors.Inc()
			}
			return
		}

		host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
		if l.limiter != nil && !l.limiter.Allow(host) {
			l.log.Debug().Str("remote", host).Msg("connection rejected by rate limiter")
			if l.metrics != nil {
				l.metrics.RateLimitRejected.Inc()
			}
			conn.Close()
			continue
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}

		id := l.registry.Register(conn.RemoteAddr())
		h := NewHandler(conn, id, l.store, l.registry, l.banner, l.verifier, l.health, l.shutdown, l.log).WithMetrics(l.metrics)
		if l.metrics != nil {
			l.metrics.Connections.Inc()
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer func() {
				if l.metrics != nil {
					l.metrics.Connections.Dec()
				}
			}()
			h.Run()
		}()
	}
}
