// Command seedlink-ingest-kafka bridges an external Kafka/Redpanda producer
// into the ring store: it consumes raw 512-byte miniSEED records keyed
// "network.station" from one or more topics and pushes each one into the
// same Store a seedlinkd accept loop would serve, so recordings captured
// elsewhere become streamable over SeedLink without going through
// seedlinkd's own ingest path.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/luhtfiimanal/seedlink-go/internal/config"
	"github.com/luhtfiimanal/seedlink-go/internal/ingest/kafka"
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

	ing, err := kafka.Connect(kafka.Config{
		Brokers:       cfg.KafkaBrokers,
		Topics:        cfg.KafkaTopics,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		FetchMaxWait:  cfg.KafkaFetchMaxWait,
	}, st, reg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to kafka")
	}
	defer ing.Close()

	if err := ing.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start ingest consumer")
	}
	log.Info().Strs("topics", cfg.KafkaTopics).Msg("seedlink-ingest-kafka started")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
}
