// Command seedlinkd runs the SeedLink server: it binds the protocol
// listener, the /health JSON endpoint, and the Prometheus /metrics endpoint.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/luhtfiimanal/seedlink-go/internal/auth"
	"github.com/luhtfiimanal/seedlink-go/internal/config"
	"github.com/luhtfiimanal/seedlink-go/internal/health"
	"github.com/luhtfiimanal/seedlink-go/internal/logging"
	"github.com/luhtfiimanal/seedlink-go/internal/metrics"
	"github.com/luhtfiimanal/seedlink-go/internal/ratelimit"
	"github.com/luhtfiimanal/seedlink-go/internal/server"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg)
	cfg.LogFields(log)

	st := store.New(cfg.RingCapacity)
	reg := server.NewRegistry()
	banner := server.Banner{Software: cfg.Software, Organization: cfg.Org, Started: server.FormatConnectedAt(server.ConnectionInfo{ConnectedAt: time.Now()})}

	var verifier *auth.Verifier
	if cfg.AuthSecret != "" {
		verifier = auth.NewVerifier(cfg.AuthSecret)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimitEnabled {
		limiter = ratelimit.New(ratelimit.Config{
			IPRate:      cfg.PerIPRate,
			IPBurst:     cfg.PerIPBurst,
			IPTTL:       cfg.RateLimitIdleEvict,
			GlobalRate:  cfg.GlobalRate,
			GlobalBurst: cfg.GlobalBurst,
			Logger:      log,
		})
		defer limiter.Stop()
	}

	ln := server.NewListener(cfg.ListenAddr, st, reg, banner, verifier, limiter, log)

	sampler := health.NewSampler(reg.Count)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sampler.Run(ctx, cfg.HealthInterval)
	ln = ln.WithHealth(sampler)

	var metricsRegistry *metrics.Registry
	if cfg.MetricsEnabled {
		metricsRegistry = metrics.NewRegistry()
		ln = ln.WithMetrics(metricsRegistry)
	}

	if err := ln.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start listener")
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("seedlinkd started")

	healthSrv := newSideServer(cfg.HealthAddr, sampler.Handler())
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	var metricsSrv *http.Server
	if metricsRegistry != nil {
		metricsSrv = newSideServer(cfg.MetricsAddr, metricsRegistry.Handler())
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	ln.Shutdown()
	log.Info().Msg("seedlinkd stopped")
}

func newSideServer(addr string, handler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/", handler)
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
