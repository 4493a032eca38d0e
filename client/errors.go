package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrDisconnected is returned when a read discovers the server closed the
// connection (io.EOF on what should have been more data).
var ErrDisconnected = errors.New("seedlink client: disconnected")

// TimeoutError reports a connect or read that exceeded its configured
// deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("seedlink client: timeout after %s", e.Timeout)
}

// ServerError wraps an ERROR response the server sent back in reply to a
// command.
type ServerError struct {
	Code        string
	Description string
}

func (e *ServerError) Error() string {
	if e.Description == "" {
		return "seedlink client: server error " + e.Code
	}
	return fmt.Sprintf("seedlink client: server error: %s %s", e.Code, e.Description)
}

// InvalidStateError reports a method called while the client is in a state
// that does not permit it.
type InvalidStateError struct {
	Method   string
	Expected string
	Actual   State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("seedlink client: %s: invalid state: expected %s, actual %s", e.Method, e.Expected, e.Actual)
}

// NegotiationFailedError reports that v4 capability negotiation could not
// complete (the server replied to SLPROTO with something other than OK or
// ERROR), or that a command is not available on the negotiated version
// (FETCH on a v4 connection).
type NegotiationFailedError struct {
	Reason string
}

func (e *NegotiationFailedError) Error() string {
	return "seedlink client: negotiation failed: " + e.Reason
}

// UnexpectedResponseError reports a response line the client did not
// recognize in its current context.
type UnexpectedResponseError struct {
	Line string
}

func (e *UnexpectedResponseError) Error() string {
	return "seedlink client: unexpected response: " + e.Line
}

// ReconnectFailedError reports that ReconnectingClient exhausted its
// configured reconnect attempts.
type ReconnectFailedError struct {
	Attempts int
}

func (e *ReconnectFailedError) Error() string {
	return fmt.Sprintf("seedlink client: reconnect failed after %d attempts", e.Attempts)
}
