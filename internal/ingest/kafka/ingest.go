// Package kafka adapts an external Kafka/Redpanda producer into the ring
// store: it consumes raw 512-byte miniSEED records keyed "network.station"
// and pushes each one, the same external-producer role internal/ingest/nats
// fills for NATS. It wraps franz-go's kgo.Client the way the teacher's own
// ws/internal/shared/kafka.Consumer wraps it — SeedBrokers, ConsumeTopics,
// ConsumeResetOffset(AtEnd), a cancellable poll loop — retargeted from
// Redpanda token events to opaque miniSEED payloads, with batching dropped:
// a ring push is cheap enough not to need it.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/luhtfiimanal/seedlink-go/internal/metrics"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

const payloadLen = 512

// ErrBadKey means a record arrived with a key that doesn't carry a
// network.station pair.
var ErrBadKey = errors.New("kafka ingest: record key missing network.station pair")

// Config holds the Kafka/Redpanda connection and consumption settings.
type Config struct {
	Brokers       []string
	Topics        []string
	ConsumerGroup string

	FetchMaxWait time.Duration // Default: 500ms, matching the teacher's consumer.
}

// Ingester consumes Config.Topics and pushes every well-formed record into
// a Store. Records are keyed "<network>.<station>"; the value is the raw
// 512-byte miniSEED payload.
type Ingester struct {
	client *kgo.Client
	st     *store.Store
	reg    *metrics.Registry
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Connect dials the Kafka/Redpanda cluster and returns an Ingester, not yet
// consuming.
func Connect(cfg Config, st *store.Store, reg *metrics.Registry, log zerolog.Logger) (*Ingester, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka ingest: at least one broker is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka ingest: at least one topic is required")
	}
	fetchMaxWait := cfg.FetchMaxWait
	if fetchMaxWait <= 0 {
		fetchMaxWait = 500 * time.Millisecond
	}

	ing := &Ingester{st: st, reg: reg, log: log.With().Str("component", "kafka-ingest").Logger()}
	ing.ctx, ing.cancel = context.WithCancel(context.Background())

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.FetchMaxWait(fetchMaxWait),
		kgo.OnPartitionsAssigned(func(_ context.Context, _ *kgo.Client, assigned map[string][]int32) {
			ing.log.Info().Interface("partitions", assigned).Msg("partitions assigned")
		}),
		kgo.OnPartitionsRevoked(func(_ context.Context, _ *kgo.Client, revoked map[string][]int32) {
			ing.log.Info().Interface("partitions", revoked).Msg("partitions revoked")
		}),
	)
	if err != nil {
		ing.cancel()
		return nil, fmt.Errorf("kafka ingest: create client: %w", err)
	}
	ing.client = client
	return ing, nil
}

// Start launches the poll loop in a background goroutine.
func (ing *Ingester) Start() error {
	ing.wg.Add(1)
	go ing.consumeLoop()
	ing.log.Info().Strs("topics", ing.client.GetConsumeTopics()).Msg("kafka consumer started")
	return nil
}

// Close cancels the poll loop, waits for it to exit, and closes the client.
func (ing *Ingester) Close() error {
	ing.cancel()
	ing.wg.Wait()
	ing.client.Close()
	return nil
}

func (ing *Ingester) consumeLoop() {
	defer ing.wg.Done()
	for {
		fetches := ing.client.PollFetches(ing.ctx)
		if ing.ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			ing.log.Error().Str("topic", topic).Int32("partition", partition).Err(err).Msg("fetch error")
		})
		fetches.EachRecord(ing.handle)
	}
}

func (ing *Ingester) handle(rec *kgo.Record) {
	network, station, err := parseKey(rec.Key)
	if err != nil {
		ing.log.Warn().Str("topic", rec.Topic).Err(err).Msg("dropping record")
		ing.drop()
		return
	}
	if len(rec.Value) != payloadLen {
		ing.log.Warn().Str("topic", rec.Topic).Int("len", len(rec.Value)).Msg("dropping malformed payload")
		ing.drop()
		return
	}

	seq := ing.st.Push(network, station, rec.Value)
	if ing.reg != nil {
		ing.reg.RecordsPushed.Inc()
	}
	ing.log.Debug().Str("network", network).Str("station", station).Str("sequence", seq.String()).Msg("ingested")
}

func (ing *Ingester) drop() {
	if ing.reg != nil {
		ing.reg.RecordsDropped.Inc()
	}
}

// parseKey extracts network/station from a "<network>.<station>" record
// key, e.g. "IU.ANMO" -> ("IU", "ANMO").
func parseKey(key []byte) (network, station string, err error) {
	parts := strings.Split(string(key), ".")
	if len(parts) < 2 {
		return "", "", ErrBadKey
	}
	network = parts[len(parts)-2]
	station = parts[len(parts)-1]
	if network == "" || station == "" {
		return "", "", ErrBadKey
	}
	return network, station, nil
}
