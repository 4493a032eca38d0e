// Command seedlink-ingest-nats bridges an external NATS publisher into the
// ring store: it subscribes to a subject hierarchy carrying raw 512-byte
// miniSEED records and pushes each one into the same Store a seedlinkd
// accept loop would serve, so recordings captured elsewhere become
// streamable over SeedLink without going through seedlinkd's own ingest
// path.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/luhtfiimanal/seedlink-go/internal/config"
	"github.com/luhtfiimanal/seedlink-go/internal/ingest/nats"
	"github.com/luhtfiimanal/seedlink-go/internal/logging"
	"github.com/luhtfiimanal/seedlink-go/internal/metrics"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg)

	st := store.New(cfg.RingCapacity)

	var reg *metrics.Registry
	if cfg.MetricsEnabled {
		reg = metrics.NewRegistry()
	}

	ing, err := nats.Connect(nats.Config{
		URL:             cfg.NATSURL,
		Subject:         cfg.NATSSubject,
		MaxReconnects:   cfg.NATSMaxReconnects,
		ReconnectWait:   cfg.NATSReconnectWait,
		ReconnectJitter: cfg.NATSReconnectJitter,
	}, st, reg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer ing.Close()

	if err := ing.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start ingest subscription")
	}
	log.Info().Str("subject", cfg.NATSSubject).Msg("seedlink-ingest-nats started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
}
