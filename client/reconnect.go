package client

import (
	"time"

	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

// ReconnectConfig configures ReconnectingClient's exponential backoff.
type ReconnectConfig struct {
	// InitialBackoff is the delay before the first reconnect attempt.
	// Default: 1s.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts. Default: 60s.
	MaxBackoff time.Duration
	// Multiplier scales the backoff after each failed attempt. Default: 2.
	Multiplier float64
	// MaxAttempts bounds how many reconnect attempts are made per
	// disconnect. 0 means unlimited. Default: 0.
	MaxAttempts int
}

// DefaultReconnectConfig returns the defaults ConnectReconnecting uses.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2,
		MaxAttempts:    0,
	}
}

func (r ReconnectConfig) withDefaults() ReconnectConfig {
	d := DefaultReconnectConfig()
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = d.InitialBackoff
	}
	if r.MaxBackoff <= 0 {
		r.MaxBackoff = d.MaxBackoff
	}
	if r.Multiplier <= 0 {
		r.Multiplier = d.Multiplier
	}
	return r
}

type subscriptionKind int

const (
	stepStation subscriptionKind = iota
	stepSelect
	stepData
	stepTimeWindow
)

// subscriptionStep records one subscription call for replay after a
// reconnect. Go has no sum type, so kind tags which fields apply, the same
// tagged-union idiom internal/wire.Command and internal/wire.Frame use.
type subscriptionStep struct {
	kind    subscriptionKind
	station string
	network string
	pattern string
	start   string
	end     string
}

// ReconnectingClient wraps Client with automatic reconnect: every STATION,
// SELECT, DATA, and TIME call is recorded and replayed in order after a
// reconnect. DATA is replayed as DATA-from the last sequence number seen for
// the station named by the preceding STATION step, so each station resumes
// from its own position without a gap.
//
// SeedLink servers may resend the frame at the requested resume sequence.
// NextFrame silently drops any frame whose sequence is at or below the last
// tracked sequence for its station, so callers never see a duplicate.
type ReconnectingClient struct {
	addr      string
	cfg       Config
	reconnect ReconnectConfig
	steps     []subscriptionStep
	client    *Client
	sequences map[StationKey]seq.Number
}

// ConnectReconnecting connects with default client and reconnect configs.
func ConnectReconnecting(addr string) (*ReconnectingClient, error) {
	return ConnectReconnectingWithConfig(addr, DefaultConfig(), DefaultReconnectConfig())
}

// ConnectReconnectingWithConfig connects with custom client and reconnect
// configs.
func ConnectReconnectingWithConfig(addr string, cfg Config, reconnect ReconnectConfig) (*ReconnectingClient, error) {
	c, err := ConnectWithConfig(addr, cfg)
	if err != nil {
		return nil, err
	}
	return &ReconnectingClient{
		addr:      addr,
		cfg:       cfg,
		reconnect: reconnect.withDefaults(),
		client:    c,
		sequences: make(map[StationKey]seq.Number),
	}, nil
}

// Station selects a station/network pair and records the step for replay.
func (r *ReconnectingClient) Station(station, network string) error {
	r.steps = append(r.steps, subscriptionStep{kind: stepStation, station: station, network: network})
	return r.client.Station(station, network)
}

// Select narrows channels and records the step for replay.
func (r *ReconnectingClient) Select(pattern string) error {
	r.steps = append(r.steps, subscriptionStep{kind: stepSelect, pattern: pattern})
	return r.client.Select(pattern)
}

// Data arms streaming and records the step for replay.
func (r *ReconnectingClient) Data() error {
	r.steps = append(r.steps, subscriptionStep{kind: stepData})
	return r.client.Data()
}

// TimeWindow restricts streaming to a time range and records the step for
// replay.
func (r *ReconnectingClient) TimeWindow(start, end string) error {
	r.steps = append(r.steps, subscriptionStep{kind: stepTimeWindow, start: start, end: end})
	return r.client.TimeWindow(start, end)
}

// EndStream starts streaming. It is not recorded: every reconnect replays
// it automatically after replaying the recorded subscription steps.
func (r *ReconnectingClient) EndStream() error {
	return r.client.EndStream()
}

// State reports the underlying Client's current state.
func (r *ReconnectingClient) State() State { return r.client.State() }

// LastSequence returns the highest sequence number observed for a
// network/station pair, across all reconnects.
func (r *ReconnectingClient) LastSequence(network, station string) (seq.Number, bool) {
	n, ok := r.sequences[StationKey{Network: network, Station: station}]
	return n, ok
}

// Sequences returns a copy of every tracked network/station -> sequence
// mapping, across all reconnects.
func (r *ReconnectingClient) Sequences() map[StationKey]seq.Number {
	out := make(map[StationKey]seq.Number, len(r.sequences))
	for k, v := range r.sequences {
		out[k] = v
	}
	return out
}

// Close closes the current underlying connection.
func (r *ReconnectingClient) Close() error {
	return r.client.Close()
}

// NextFrame reads the next frame, transparently reconnecting and replaying
// subscriptions on disconnect. It returns (nil, nil) once reconnect attempts
// are exhausted, matching Client.NextFrame's clean-EOF convention.
func (r *ReconnectingClient) NextFrame() (*wire.Frame, error) {
	for {
		frame, err := r.client.NextFrame()
		if err != nil {
			return nil, err
		}
		if frame != nil {
			if key, ok := stationKey(*frame); ok {
				if tracked, seen := r.sequences[key]; seen && frame.Sequence <= tracked {
					continue
				}
			}
			r.syncSequences()
			return frame, nil
		}

		if err := r.attemptReconnect(); err != nil {
			if _, ok := err.(*ReconnectFailedError); ok {
				return nil, nil
			}
			return nil, err
		}
	}
}

func (r *ReconnectingClient) syncSequences() {
	for k, v := range r.client.sequences {
		if existing, ok := r.sequences[k]; !ok || v > existing {
			r.sequences[k] = v
		}
	}
}

func (r *ReconnectingClient) attemptReconnect() error {
	_ = r.client.Close()

	backoff := r.reconnect.InitialBackoff
	attempts := 0
	for r.reconnect.MaxAttempts == 0 || attempts < r.reconnect.MaxAttempts {
		attempts++

		c, err := ConnectWithConfig(r.addr, r.cfg)
		if err == nil {
			r.client = c
			if err := r.replaySubscriptions(); err == nil {
				return nil
			}
			_ = r.client.Close()
		}

		time.Sleep(backoff)
		backoff = time.Duration(float64(backoff) * r.reconnect.Multiplier)
		if backoff > r.reconnect.MaxBackoff {
			backoff = r.reconnect.MaxBackoff
		}
	}
	return &ReconnectFailedError{Attempts: attempts}
}

func (r *ReconnectingClient) replaySubscriptions() error {
	// currentStation tracks the most recently replayed STATION step, the
	// same way the original's replay loop keeps a current_station variable:
	// a bare DATA step resumes from *that* station's tracked sequence, not
	// a cross-station maximum.
	var currentStation StationKey
	haveStation := false

	for _, step := range r.steps {
		var err error
		switch step.kind {
		case stepStation:
			currentStation = StationKey{Network: step.network, Station: step.station}
			haveStation = true
			err = r.client.Station(step.station, step.network)
		case stepSelect:
			err = r.client.Select(step.pattern)
		case stepData:
			err = r.resumeData(currentStation, haveStation)
		case stepTimeWindow:
			err = r.client.TimeWindow(step.start, step.end)
		}
		if err != nil {
			return err
		}
	}
	return r.client.EndStream()
}

// resumeData replays a recorded Data() step as DATA-from the current
// station's own tracked sequence, so the server doesn't re-deliver that
// station's whole buffer from scratch. A fresh reconnect with nothing
// tracked yet for that station (or no preceding STATION step at all) falls
// back to a bare DATA.
func (r *ReconnectingClient) resumeData(station StationKey, haveStation bool) error {
	if !haveStation {
		return r.client.Data()
	}
	last, tracked := r.sequences[station]
	if !tracked {
		return r.client.Data()
	}
	return r.client.DataFrom(last)
}
