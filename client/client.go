package client

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

// Client drives one SeedLink connection: HELLO/negotiation, STATION/SELECT/
// DATA/TIME subscription, and the resulting frame stream. A Client is
// single-connection and not safe for concurrent use from multiple
// goroutines, the same way Handler on the server side is single-use per
// accepted connection.
type Client struct {
	conn      net.Conn
	reader    *bufio.Reader
	cfg       Config
	version   wire.Version
	state     State
	info      ServerInfo
	sequences map[StationKey]seq.Number
}

// Connect dials addr and completes the HELLO/negotiation handshake using
// DefaultConfig.
func Connect(addr string) (*Client, error) {
	return ConnectWithConfig(addr, DefaultConfig())
}

// ConnectWithConfig dials addr with cfg and completes the HELLO/negotiation
// handshake. On success the returned Client is in StateConnected.
func ConnectWithConfig(addr string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	conn, err := net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, &TimeoutError{Timeout: cfg.ConnectTimeout}
		}
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	c := &Client{
		conn:      conn,
		reader:    bufio.NewReader(conn),
		cfg:       cfg,
		version:   wire.V3,
		state:     StateConnected,
		sequences: make(map[StationKey]seq.Number),
	}

	if err := c.hello(); err != nil {
		conn.Close()
		return nil, err
	}
	if cfg.PreferV4 && c.info.SupportsV4 {
		if err := c.negotiateV4(); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return c, nil
}

// State reports the client's current position in the Connected -> Configured
// -> Streaming progression.
func (c *Client) State() State { return c.state }

// ServerInfo returns what the HELLO banner advertised.
func (c *Client) ServerInfo() ServerInfo { return c.info }

// Version reports the protocol version negotiated for this connection.
func (c *Client) Version() wire.Version { return c.version }

// Close closes the underlying connection without sending BYE.
func (c *Client) Close() error {
	c.state = StateDisconnected
	return c.conn.Close()
}

// Bye sends BYE and closes the connection.
func (c *Client) Bye() error {
	sendErr := c.sendCommand(wire.Command{Kind: wire.CmdBye})
	c.state = StateDisconnected
	closeErr := c.conn.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// Station selects a station/network pair to subscribe to. Valid from
// Connected or Configured (multiple STATION calls accumulate subscriptions
// for later multi-station streaming).
func (c *Client) Station(station, network string) error {
	if err := requireStateIn(c.state, "Station", StateConnected, StateConfigured); err != nil {
		return err
	}
	if err := c.sendCommand(wire.Command{Kind: wire.CmdStation, Station: station, Network: network}); err != nil {
		return err
	}
	if err := c.readOKResponse(); err != nil {
		return err
	}
	c.state = StateConfigured
	return nil
}

// Select narrows the most recently selected station's channels by SELECT
// pattern. Valid only once at least one Station call has succeeded.
func (c *Client) Select(pattern string) error {
	if err := requireStateIn(c.state, "Select", StateConfigured); err != nil {
		return err
	}
	if err := c.sendCommand(wire.Command{Kind: wire.CmdSelect, Pattern: pattern}); err != nil {
		return err
	}
	return c.readOKResponse()
}

// Data arms continuous streaming from whatever cursor the server currently
// holds for this connection (nothing, the first time).
func (c *Client) Data() error {
	return c.dataFrom(false, 0)
}

// DataFrom arms continuous streaming resuming after sequence.
func (c *Client) DataFrom(sequence seq.Number) error {
	return c.dataFrom(true, sequence)
}

func (c *Client) dataFrom(hasSeq bool, sequence seq.Number) error {
	if err := requireStateIn(c.state, "Data", StateConfigured); err != nil {
		return err
	}
	cmd := wire.Command{Kind: wire.CmdData, HasSequence: hasSeq, Sequence: sequence}
	if err := c.sendCommand(cmd); err != nil {
		return err
	}
	return c.readOKResponse()
}

// Fetch arms a one-shot drain of whatever is currently buffered, v3 only.
func (c *Client) Fetch() error {
	return c.fetch(false, 0)
}

// FetchFrom arms a one-shot drain starting after sequence, v3 only.
func (c *Client) FetchFrom(sequence seq.Number) error {
	return c.fetch(true, sequence)
}

func (c *Client) fetch(hasSeq bool, sequence seq.Number) error {
	if err := requireStateIn(c.state, "Fetch", StateConfigured); err != nil {
		return err
	}
	if c.version != wire.V3 {
		return &NegotiationFailedError{Reason: "FETCH is v3 only"}
	}
	cmd := wire.Command{Kind: wire.CmdFetch, HasSequence: hasSeq, Sequence: sequence}
	if err := c.sendCommand(cmd); err != nil {
		return err
	}
	// FETCH has no text acknowledgement: the server streams whatever it has
	// buffered and then closes, the same way Handler.streamLoop returns
	// after one non-continuous drain with no OK written first.
	c.state = StateStreaming
	return nil
}

// TimeWindow restricts subsequent streaming to records whose timestamp
// falls within [start, end]. end may be empty for an open-ended window.
func (c *Client) TimeWindow(start, end string) error {
	if err := requireStateIn(c.state, "TimeWindow", StateConfigured); err != nil {
		return err
	}
	if err := c.sendCommand(wire.Command{Kind: wire.CmdTime, Start: start, End: end}); err != nil {
		return err
	}
	return c.readOKResponse()
}

// EndStream sends END and transitions into Streaming. END has no
// acknowledgement: the server starts writing frames immediately.
func (c *Client) EndStream() error {
	if err := requireStateIn(c.state, "EndStream", StateConfigured); err != nil {
		return err
	}
	if err := c.sendCommand(wire.Command{Kind: wire.CmdEnd}); err != nil {
		return err
	}
	c.state = StateStreaming
	return nil
}

// NextFrame reads the next data frame. It returns (nil, nil) once the
// server ends the stream cleanly (FETCH drained, or the connection
// closed), and tracks the frame's sequence number against its station for
// LastSequence/Sequences.
func (c *Client) NextFrame() (*wire.Frame, error) {
	if err := requireStateIn(c.state, "NextFrame", StateStreaming); err != nil {
		return nil, err
	}
	frame, err := c.readFrame()
	if err != nil {
		if errors.Is(err, ErrDisconnected) {
			return nil, nil
		}
		return nil, err
	}
	c.trackSequence(frame)
	return &frame, nil
}

// Info sends INFO level and collects every response frame's payload
// (NUL-trimmed) into one string, stopping at the server's END/ERROR
// terminator line. Valid in any connected state.
func (c *Client) Info(level wire.InfoLevel) (string, error) {
	if c.state == StateDisconnected {
		return "", &InvalidStateError{Method: "Info", Expected: "any connected state", Actual: c.state}
	}
	if err := c.sendCommand(wire.Command{Kind: wire.CmdInfo, Level: level}); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for {
		sig, err := c.peekSignature()
		if err != nil {
			return "", err
		}
		if sig == wire.V3Signature || sig == wire.V4Signature {
			frame, err := c.readFrame()
			if err != nil {
				return "", err
			}
			buf.Write(bytes.TrimRight(frame.Payload, "\x00"))
			continue
		}

		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		resp, err := wire.ParseResponseLine(line)
		if err != nil {
			return "", err
		}
		switch resp.Kind {
		case wire.RespEnd:
			return buf.String(), nil
		case wire.RespError:
			return "", &ServerError{Code: resp.Code.String(), Description: resp.Description}
		default:
			return "", &UnexpectedResponseError{Line: strings.TrimSpace(line)}
		}
	}
}

// LastSequence returns the highest sequence number observed for a
// network/station pair.
func (c *Client) LastSequence(network, station string) (seq.Number, bool) {
	n, ok := c.sequences[StationKey{Network: network, Station: station}]
	return n, ok
}

// Sequences returns a copy of every tracked network/station -> sequence
// mapping.
func (c *Client) Sequences() map[StationKey]seq.Number {
	out := make(map[StationKey]seq.Number, len(c.sequences))
	for k, v := range c.sequences {
		out[k] = v
	}
	return out
}

func (c *Client) trackSequence(f wire.Frame) {
	key, ok := stationKey(f)
	if !ok {
		return
	}
	if existing, tracked := c.sequences[key]; !tracked || f.Sequence > existing {
		c.sequences[key] = f.Sequence
	}
}

func (c *Client) hello() error {
	if err := c.sendCommand(wire.Command{Kind: wire.CmdHello}); err != nil {
		return err
	}
	line1, err := c.readLine()
	if err != nil {
		return err
	}
	line2, err := c.readLine()
	if err != nil {
		return err
	}
	resp, err := wire.ParseHello(line1, line2)
	if err != nil {
		return err
	}
	caps := parseCapabilities(resp.Extra)
	c.info = ServerInfo{
		Software:     resp.Software,
		VersionLabel: resp.VersionLabel,
		Organization: resp.Organization,
		Capabilities: caps,
		SupportsV4:   supportsV4(caps),
	}
	return nil
}

// negotiateV4 requests SLPROTO 4.0. OK switches the connection to v4;
// ERROR falls back to v3 silently (the server simply doesn't support it);
// anything else is a hard negotiation failure.
func (c *Client) negotiateV4() error {
	if err := c.sendCommand(wire.Command{Kind: wire.CmdSLProto, SLProtoVersion: "4.0"}); err != nil {
		return err
	}
	line, err := c.readLine()
	if err != nil {
		return err
	}
	resp, err := wire.ParseResponseLine(line)
	if err != nil {
		return err
	}
	switch resp.Kind {
	case wire.RespOk:
		c.version = wire.V4
		return nil
	case wire.RespError:
		return nil
	default:
		return &NegotiationFailedError{Reason: strings.TrimSpace(line)}
	}
}

func (c *Client) sendCommand(cmd wire.Command) error {
	data, err := cmd.ToBytes(c.version)
	if err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

func (c *Client) readOKResponse() error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	resp, err := wire.ParseResponseLine(line)
	if err != nil {
		return err
	}
	switch resp.Kind {
	case wire.RespOk:
		return nil
	case wire.RespError:
		return &ServerError{Code: resp.Code.String(), Description: resp.Description}
	default:
		return &UnexpectedResponseError{Line: strings.TrimSpace(line)}
	}
}

func (c *Client) readLine() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrDisconnected
			}
			return line, nil
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", &TimeoutError{Timeout: c.cfg.ReadTimeout}
		}
		return "", err
	}
	return line, nil
}

// peekSignature returns the next 2 bytes without consuming them, used by
// Info to tell a binary frame apart from the textual END/ERROR terminator.
func (c *Client) peekSignature() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return "", err
	}
	peek, err := c.reader.Peek(2)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", ErrDisconnected
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", &TimeoutError{Timeout: c.cfg.ReadTimeout}
		}
		return "", err
	}
	return string(peek), nil
}

func (c *Client) readExact(buf []byte) error {
	timeout := c.cfg.ReadIdleTimeout
	if timeout <= 0 {
		timeout = c.cfg.ReadTimeout
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrDisconnected
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return &TimeoutError{Timeout: timeout}
		}
		return err
	}
	return nil
}

func (c *Client) readFrame() (wire.Frame, error) {
	if c.version == wire.V4 {
		return c.readV4Frame()
	}
	return c.readV3Frame()
}

func (c *Client) readV3Frame() (wire.Frame, error) {
	buf := make([]byte, wire.V3FrameLen)
	if err := c.readExact(buf); err != nil {
		return wire.Frame{}, err
	}
	return wire.ParseV3Frame(buf)
}

// readV4Frame reads the fixed-size v4 header first to learn the variable
// station-id and payload lengths, then reads exactly that many more bytes,
// mirroring the two-stage read the server's own v4 writer's header layout
// requires on the decode side.
func (c *Client) readV4Frame() (wire.Frame, error) {
	header := make([]byte, wire.V4MinHeaderLen)
	if err := c.readExact(header); err != nil {
		return wire.Frame{}, err
	}
	stationIDLen := int(header[16])
	payloadLen := int(binary.LittleEndian.Uint32(header[4:8]))

	full := make([]byte, wire.V4MinHeaderLen+stationIDLen+payloadLen)
	copy(full, header)
	if err := c.readExact(full[wire.V4MinHeaderLen:]); err != nil {
		return wire.Frame{}, err
	}
	frame, _, err := wire.ParseV4Frame(full)
	return frame, err
}

func requireStateIn(actual State, method string, allowed ...State) error {
	for _, s := range allowed {
		if actual == s {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = s.String()
	}
	return &InvalidStateError{Method: method, Expected: strings.Join(names, " or "), Actual: actual}
}
