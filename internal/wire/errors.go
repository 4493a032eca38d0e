package wire

import "fmt"

// FrameTooShortError reports a binary frame buffer shorter than the header
// or total length it declares.
type FrameTooShortError struct {
	Expected int
	Actual   int
}

func (e *FrameTooShortError) Error() string {
	return fmt.Sprintf("frame too short: expected %d, actual %d", e.Expected, e.Actual)
}

// InvalidSignatureError reports a frame whose leading two bytes are not the
// expected "SL" (v3) or "SE" (v4) signature.
type InvalidSignatureError struct {
	Expected string
	Actual   [2]byte
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature: expected %q, actual %q", e.Expected, e.Actual[:])
}

// InvalidSequenceError reports a malformed sequence number encoding.
type InvalidSequenceError struct {
	Reason string
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("invalid sequence: %s", e.Reason)
}

// InvalidCommandError reports a text command line that does not parse.
type InvalidCommandError struct {
	Reason string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command: %s", e.Reason)
}

// VersionMismatchError reports a command that is well-formed but not valid
// for the connection's negotiated protocol version.
type VersionMismatchError struct {
	Command string
	Version Version
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: %s not valid for %s", e.Command, e.Version)
}

// InvalidResponseError reports a response line the client cannot interpret.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("invalid response: %s", e.Reason)
}

// ServerError wraps an ERROR response the server sent back to the client,
// per §7's "Server-reported" error category.
type ServerError struct {
	Code        string
	Description string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: [%s] %s", e.Code, e.Description)
}

// InvalidInfoLevelError reports an unrecognized INFO level keyword.
type InvalidInfoLevelError struct {
	Level string
}

func (e *InvalidInfoLevelError) Error() string {
	return fmt.Sprintf("invalid info level: %s", e.Level)
}

// InvalidPayloadFormatError reports an unrecognized v4 payload format byte.
type InvalidPayloadFormatError struct {
	Byte byte
}

func (e *InvalidPayloadFormatError) Error() string {
	return fmt.Sprintf("invalid payload format: %q", e.Byte)
}

// InvalidPayloadSubformatError reports an unrecognized v4 payload subformat byte.
type InvalidPayloadSubformatError struct {
	Byte byte
}

func (e *InvalidPayloadSubformatError) Error() string {
	return fmt.Sprintf("invalid payload subformat: %q", e.Byte)
}

// PayloadLengthMismatchError reports a v3 write() call whose payload is not
// exactly 512 bytes.
type PayloadLengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *PayloadLengthMismatchError) Error() string {
	return fmt.Sprintf("payload length mismatch: expected %d, actual %d", e.Expected, e.Actual)
}
