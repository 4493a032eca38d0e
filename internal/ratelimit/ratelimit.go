// Package ratelimit throttles new TCP connection attempts in the accept
// loop (internal/server/listener.go). It is additive hardening, not part of
// the SeedLink protocol: it never rejects already-accepted traffic, only
// the accept itself.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds per-IP and global token-bucket parameters.
type Config struct {
	IPBurst     int
	IPRate      float64
	IPTTL       time.Duration
	GlobalBurst int
	GlobalRate  float64
	Logger      zerolog.Logger
}

func (c *Config) setDefaults() {
	if c.IPBurst == 0 {
		c.IPBurst = 10
	}
	if c.IPRate == 0 {
		c.IPRate = 1.0
	}
	if c.IPTTL == 0 {
		c.IPTTL = 5 * time.Minute
	}
	if c.GlobalBurst == 0 {
		c.GlobalBurst = 300
	}
	if c.GlobalRate == 0 {
		c.GlobalRate = 50.0
	}
}

type ipEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter is a two-level (per-IP + global) connection-rate limiter.
type Limiter struct {
	mu    sync.Mutex
	byIP  map[string]*ipEntry
	ipTTL time.Duration
	ipBurst int
	ipRate  float64

	global *rate.Limiter
	log    zerolog.Logger

	stop chan struct{}
}

// New creates a Limiter and starts its background stale-entry cleanup.
func New(cfg Config) *Limiter {
	cfg.setDefaults()
	l := &Limiter{
		byIP:    make(map[string]*ipEntry),
		ipTTL:   cfg.IPTTL,
		ipBurst: cfg.IPBurst,
		ipRate:  cfg.IPRate,
		global:  rate.NewLimiter(rate.Limit(cfg.GlobalRate), cfg.GlobalBurst),
		log:     cfg.Logger.With().Str("component", "ratelimit").Logger(),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether a new connection from ip may proceed: the global
// bucket is checked first (cheap, no map lookup), then the per-IP bucket.
func (l *Limiter) Allow(ip string) bool {
	if !l.global.Allow() {
		l.log.Debug().Str("ip", ip).Msg("connection rejected: global rate limit exceeded")
		return false
	}
	if !l.ipLimiterFor(ip).Allow() {
		l.log.Debug().Str("ip", ip).Msg("connection rejected: per-IP rate limit exceeded")
		return false
	}
	return true
}

func (l *Limiter) ipLimiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byIP[ip]
	if ok {
		entry.lastAccess = time.Now()
		return entry.limiter
	}
	entry = &ipEntry{limiter: rate.NewLimiter(rate.Limit(l.ipRate), l.ipBurst), lastAccess: time.Now()}
	l.byIP[ip] = entry
	return entry.limiter
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for ip, entry := range l.byIP {
		if now.Sub(entry.lastAccess) > l.ipTTL {
			delete(l.byIP, ip)
		}
	}
}

// Stop ends the background cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.stop)
}
