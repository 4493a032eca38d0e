// Package nats adapts an external NATS publisher into the ring store: it
// subscribes to a subject hierarchy carrying raw 512-byte miniSEED records
// and pushes each one, the way go-server's pkg/nats.Client wraps a
// nats.Conn with reconnect/error handlers and a typed Subscribe call, here
// retargeted from JSON market messages to opaque miniSEED payloads.
package nats

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/luhtfiimanal/seedlink-go/internal/metrics"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

const payloadLen = 512

// ErrBadSubject means a message arrived on a subject that doesn't carry a
// network.station suffix.
var ErrBadSubject = errors.New("nats ingest: subject missing network.station suffix")

// Config holds the NATS connection and subscription settings.
type Config struct {
	URL     string
	Subject string // e.g. "seedlink.>", matching "seedlink.<network>.<station>"

	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectJitter time.Duration
}

// Ingester subscribes to Config.Subject and pushes every well-formed
// message into a Store.
type Ingester struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	st      *store.Store
	reg     *metrics.Registry
	log     zerolog.Logger
	subject string
}

// Connect dials NATS and returns an Ingester, not yet subscribed.
func Connect(cfg Config, st *store.Store, reg *metrics.Registry, log zerolog.Logger) (*Ingester, error) {
	ing := &Ingester{st: st, reg: reg, log: log.With().Str("component", "nats-ingest").Logger(), subject: cfg.Subject}

	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(cfg.ReconnectJitter, cfg.ReconnectJitter),
		nats.ConnectHandler(func(c *nats.Conn) {
			ing.log.Info().Str("url", c.ConnectedUrl()).Msg("connected to nats")
		}),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			ing.log.Warn().Err(err).Msg("disconnected from nats")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			ing.log.Info().Str("url", c.ConnectedUrl()).Msg("reconnected to nats")
		}),
		nats.ErrorHandler(func(c *nats.Conn, s *nats.Subscription, err error) {
			ing.log.Error().Err(err).Msg("nats error")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	ing.conn = conn
	return ing, nil
}

// Start subscribes and begins pushing records into the store. Each message
// is handled synchronously on NATS's own dispatch goroutine; Store.Push is
// safe for that.
func (ing *Ingester) Start() error {
	sub, err := ing.conn.Subscribe(ing.subject, ing.handle)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", ing.subject, err)
	}
	ing.sub = sub
	ing.log.Info().Str("subject", ing.subject).Msg("subscribed")
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (ing *Ingester) Close() error {
	if ing.sub != nil {
		_ = ing.sub.Unsubscribe()
	}
	ing.conn.Close()
	return nil
}

func (ing *Ingester) handle(msg *nats.Msg) {
	network, station, err := parseSubject(msg.Subject)
	if err != nil {
		ing.log.Warn().Str("subject", msg.Subject).Err(err).Msg("dropping message")
		ing.drop()
		return
	}
	if len(msg.Data) != payloadLen {
		ing.log.Warn().Str("subject", msg.Subject).Int("len", len(msg.Data)).Msg("dropping malformed payload")
		ing.drop()
		return
	}

	seq := ing.st.Push(network, station, msg.Data)
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

// parseSubject extracts network/station from a "prefix.<network>.<station>"
// subject, e.g. "seedlink.IU.ANMO" -> ("IU", "ANMO").
func parseSubject(subject string) (network, station string, err error) {
	parts := strings.Split(subject, ".")
	if len(parts) < 3 {
		return "", "", ErrBadSubject
	}
	network = parts[len(parts)-2]
	station = parts[len(parts)-1]
	if network == "" || station == "" {
		return "", "", ErrBadSubject
	}
	return network, station, nil
}
