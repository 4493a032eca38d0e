package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luhtfiimanal/seedlink-go/internal/auth"
	"github.com/luhtfiimanal/seedlink-go/internal/health"
	"github.com/luhtfiimanal/seedlink-go/internal/metrics"
	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/selectpattern"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
	"github.com/luhtfiimanal/seedlink-go/internal/timewindow"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

// state labels recorded on the connection registry, matching §4.I's
// Connected -> Configured -> Streaming progression.
const (
	stateConnected  = "Connected"
	stateConfigured = "Configured"
	stateStreaming  = "Streaming"
)

// Banner carries the server identity strings used in the HELLO reply and
// INFO ID report.
type Banner struct {
	Software     string
	Organization string
	Started      string
}

// Handler drives one client connection's command loop and, once the client
// sends END or FETCH, its streaming loop (§4.I). A Handler is single-use:
// construct one per accepted connection and call Run once.
type Handler struct {
	conn     net.Conn
	connID   uint64
	store    *store.Store
	registry *Registry
	banner   Banner
	verifier *auth.Verifier     // optional; nil means AUTH is acknowledged but never checked
	health   *health.Sampler    // optional; nil means INFO CAPABILITIES omits host-stats attributes
	metrics  *metrics.Registry  // optional; nil disables Prometheus counters
	shutdown <-chan struct{}
	log      zerolog.Logger

	version wire.Version
	subs    []store.Subscription
	cursor  seq.Number

	hasWindow bool
	window    timewindow.Window
}

// NewHandler constructs a handler for an already-accepted, already-registered
// connection. verifier may be nil: AUTH is then acknowledged but never
// checked, per §9 Open Question 3. sampler may be nil: INFO CAPABILITIES then
// reports a bare host-stats tag with no attributes.
func NewHandler(conn net.Conn, connID uint64, st *store.Store, reg *Registry, banner Banner, verifier *auth.Verifier, sampler *health.Sampler, shutdown <-chan struct{}, log zerolog.Logger) *Handler {
	return &Handler{
		conn:     conn,
		connID:   connID,
		store:    st,
		registry: reg,
		banner:   banner,
		verifier: verifier,
		health:   sampler,
		shutdown: shutdown,
		log:      log.With().Uint64("conn_id", connID).Logger(),
		version:  wire.V3,
	}
}

// WithMetrics attaches a Prometheus registry for frame/INFO counters; it
// returns h for chaining. Passing nil is a no-op.
func (h *Handler) WithMetrics(reg *metrics.Registry) *Handler {
	h.metrics = reg
	return h
}

// Run processes commands until the client enters streaming, disconnects, or
// a write fails. Any write error is fatal to the handler per §4.I's failure
// handling; parse errors on inbound commands reply ERROR UNSUPPORTED and the
// loop continues.
func (h *Handler) Run() {
	defer h.conn.Close()
	defer h.registry.Unregister(h.connID)

	reader := bufio.NewReader(h.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.log.Debug().Err(err).Msg("command read error")
			}
			return
		}

		cmd, err := wire.ParseCommand(line)
		if err != nil {
			h.log.Debug().Err(err).Str("line", strings.TrimSpace(line)).Msg("command parse error")
			if !h.replyUnsupported(err.Error()) {
				return
			}
			continue
		}
		if !cmd.IsValidFor(h.version) {
			if !h.replyUnsupported(cmd.Kind.String() + ": not valid for " + h.version.String()) {
				return
			}
			continue
		}

		switch cmd.Kind {
		case wire.CmdHello:
			if !h.handleHello() {
				return
			}
		case wire.CmdStation:
			if !h.handleStation(cmd) {
				return
			}
		case wire.CmdSelect:
			if !h.handleSelect(cmd) {
				return
			}
		case wire.CmdData:
			if !h.handleData(cmd) {
				return
			}
		case wire.CmdTime:
			if !h.handleTime(cmd) {
				return
			}
		case wire.CmdSLProto:
			if !h.handleSLProto(cmd) {
				return
			}
		case wire.CmdAuth:
			// AUTH is parsed but not enforced (§9 Open Question 3): a failed
			// or absent verifier never rejects the connection, it only skips
			// recording a subject.
			if h.verifier != nil {
				if claims, err := h.verifier.Verify(cmd.AuthValue); err == nil {
					h.registry.Update(h.connID, func(info *ConnectionInfo) { info.AuthSubject = claims.Subject })
				} else {
					h.log.Debug().Err(err).Msg("AUTH token not verified")
				}
			}
			if !h.writeOK() {
				return
			}
		case wire.CmdUserAgent:
			h.registry.Update(h.connID, func(info *ConnectionInfo) { info.UserAgent = cmd.UserAgentDescription })
			if !h.writeOK() {
				return
			}
		case wire.CmdBatch, wire.CmdCat, wire.CmdEndFetch:
			if !h.writeOK() {
				return
			}
		case wire.CmdInfo:
			if !cmd.Level.IsValidFor(h.version) {
				if !h.replyUnsupported("INFO " + cmd.Level.String() + ": not valid for " + h.version.String()) {
					return
				}
				continue
			}
			if !h.handleInfo(cmd.Level) {
				return
			}
		case wire.CmdEnd:
			h.setState(stateStreaming)
			h.streamLoop(true)
			return
		case wire.CmdFetch:
			if cmd.HasSequence {
				h.cursor = cmd.Sequence
			}
			h.setState(stateStreaming)
			h.streamLoop(false)
			return
		case wire.CmdBye:
			return
		default:
			if !h.replyUnsupported("unhandled command " + cmd.Kind.String()) {
				return
			}
		}
	}
}

func (h *Handler) setState(state string) {
	h.registry.Update(h.connID, func(info *ConnectionInfo) { info.State = state })
}

func (h *Handler) write(b []byte) bool {
	if _, err := h.conn.Write(b); err != nil {
		h.log.Debug().Err(err).Msg("write error")
		return false
	}
	return true
}

func (h *Handler) writeOK() bool {
	return h.write(wire.Response{Kind: wire.RespOk}.ToBytes())
}

func (h *Handler) writeError(code wire.ErrorCode, description string) bool {
	return h.write(wire.Response{Kind: wire.RespError, HasCode: true, Code: code, Description: description}.ToBytes())
}

func (h *Handler) replyUnsupported(description string) bool {
	return h.writeError(wire.ErrCodeUnsupported, description)
}

// handleHello replies with the two-line banner, valid in any state and on
// either negotiated version.
func (h *Handler) handleHello() bool {
	resp := wire.Response{
		Kind:         wire.RespHello,
		Software:     h.banner.Software,
		VersionLabel: "v3.1",
		Extra:        ":: SLPROTO:4.0 SLPROTO:3.1",
		Organization: h.banner.Organization,
	}
	return h.write(resp.ToBytes())
}

// handleStation appends a new subscription and transitions to Configured.
func (h *Handler) handleStation(cmd wire.Command) bool {
	h.subs = append(h.subs, store.Subscription{Network: cmd.Network, Station: cmd.Station})
	h.setState(stateConfigured)
	return h.writeOK()
}

// handleSelect validates the pattern and appends it to the most recently
// declared subscription; it fails if no STATION has been seen yet.
func (h *Handler) handleSelect(cmd wire.Command) bool {
	if len(h.subs) == 0 {
		return h.writeError(wire.ErrCodeUnexpected, "SELECT without prior STATION")
	}
	pat, ok := selectpattern.Parse(cmd.Pattern)
	if !ok {
		return h.writeError(wire.ErrCodeArguments, "invalid SELECT pattern")
	}
	last := len(h.subs) - 1
	h.subs[last].Patterns = append(h.subs[last].Patterns, pat)
	return h.writeOK()
}

// handleData sets the handler-wide resume cursor. A bare DATA with no
// sequence leaves the cursor at its current value (0 by default), matching
// §4.I: the cursor lives on the handler, not per-subscription.
func (h *Handler) handleData(cmd wire.Command) bool {
	if cmd.HasSequence {
		h.cursor = cmd.Sequence
	}
	return h.writeOK()
}

// handleTime parses the TIME window and stores it for use as an additional
// filter once streaming starts.
func (h *Handler) handleTime(cmd wire.Command) bool {
	w, ok := timewindow.ParseWindow(cmd.Start, cmd.End)
	if !ok {
		return h.writeError(wire.ErrCodeArguments, "invalid TIME window")
	}
	h.window = w
	h.hasWindow = true
	return h.writeOK()
}

// handleSLProto switches the handler's framing mode to v4 on "4.0"; any
// other requested version is rejected without changing h.version.
func (h *Handler) handleSLProto(cmd wire.Command) bool {
	if cmd.SLProtoVersion != "4.0" {
		return h.writeError(wire.ErrCodeArguments, "unsupported SLPROTO version "+cmd.SLProtoVersion)
	}
	h.version = wire.V4
	h.registry.Update(h.connID, func(info *ConnectionInfo) { info.ProtocolVersion = wire.V4 })
	return h.writeOK()
}
