package wire

import (
	"fmt"
	"strings"

	"github.com/luhtfiimanal/seedlink-go/internal/seq"
)

// CommandKind identifies which of the SeedLink text commands a Command
// holds. Go has no sum type, so Command is a tagged union: Kind selects
// which of the fields below are meaningful, the way the Rust source's
// Command enum variants each carry their own payload.
type CommandKind int

const (
	CmdHello CommandKind = iota
	CmdStation
	CmdSelect
	CmdData
	CmdEnd
	CmdBye
	CmdInfo

	// v3 only
	CmdBatch
	CmdFetch
	CmdTime
	CmdCat

	// v4 only, except SLPROTO: it is also valid on v3, since it is the
	// command a v3 connection sends to negotiate the upgrade
	CmdSLProto
	CmdAuth
	CmdUserAgent
	CmdEndFetch
)

func (k CommandKind) String() string {
	switch k {
	case CmdHello:
		return "HELLO"
	case CmdStation:
		return "STATION"
	case CmdSelect:
		return "SELECT"
	case CmdData:
		return "DATA"
	case CmdEnd:
		return "END"
	case CmdBye:
		return "BYE"
	case CmdInfo:
		return "INFO"
	case CmdBatch:
		return "BATCH"
	case CmdFetch:
		return "FETCH"
	case CmdTime:
		return "TIME"
	case CmdCat:
		return "CAT"
	case CmdSLProto:
		return "SLPROTO"
	case CmdAuth:
		return "AUTH"
	case CmdUserAgent:
		return "USERAGENT"
	case CmdEndFetch:
		return "ENDFETCH"
	default:
		return "UNKNOWN"
	}
}

// Command is a parsed SeedLink text command line.
type Command struct {
	Kind CommandKind

	// STATION
	Station string
	Network string

	// SELECT
	Pattern string

	// DATA / FETCH
	HasSequence bool
	Sequence    seq.Number
	Start       string // DATA/TIME start time string, as given on the wire
	End         string // DATA/TIME end time string, as given on the wire

	// INFO
	Level InfoLevel

	// SLPROTO
	SLProtoVersion string

	// AUTH
	AuthValue string

	// USERAGENT
	UserAgentDescription string
}

// ParseCommand parses a single command line (no trailing CRLF expected, but
// tolerated). Keywords are matched case-insensitively.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, &InvalidCommandError{Reason: "empty command"}
	}
	keyword := strings.ToUpper(parts[0])
	args := parts[1:]

	switch keyword {
	case "HELLO":
		if err := rejectExtraArgs(args, "HELLO"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdHello}, nil

	case "STATION":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "STATION requires arguments"}
		}
		first := args[0]
		if len(args) >= 2 {
			if err := rejectExtraArgs(args[2:], "STATION"); err != nil {
				return Command{}, err
			}
			return Command{Kind: CmdStation, Station: first, Network: args[1]}, nil
		}
		// v4 combined form: NET_STA
		if net, sta, ok := strings.Cut(first, "_"); ok {
			return Command{Kind: CmdStation, Station: sta, Network: net}, nil
		}
		return Command{}, &InvalidCommandError{
			Reason: fmt.Sprintf("STATION: expected 'STA NET' or 'NET_STA', got %q", first),
		}

	case "SELECT":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "SELECT requires a pattern"}
		}
		if err := rejectExtraArgs(args[1:], "SELECT"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdSelect, Pattern: args[0]}, nil

	case "DATA":
		cmd := Command{Kind: CmdData}
		if len(args) > 0 {
			n, err := parseSequenceArg(args[0])
			if err != nil {
				return Command{}, err
			}
			cmd.HasSequence = true
			cmd.Sequence = n
		}
		if len(args) > 1 {
			cmd.Start = args[1]
		}
		if len(args) > 2 {
			cmd.End = args[2]
		}
		return cmd, nil

	case "END":
		if err := rejectExtraArgs(args, "END"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdEnd}, nil

	case "BYE":
		if err := rejectExtraArgs(args, "BYE"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBye}, nil

	case "INFO":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "INFO requires a level"}
		}
		if err := rejectExtraArgs(args[1:], "INFO"); err != nil {
			return Command{}, err
		}
		level, err := ParseInfoLevel(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdInfo, Level: level}, nil

	case "BATCH":
		if err := rejectExtraArgs(args, "BATCH"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdBatch}, nil

	case "FETCH":
		cmd := Command{Kind: CmdFetch}
		if len(args) > 0 {
			n, err := parseSequenceArg(args[0])
			if err != nil {
				return Command{}, err
			}
			cmd.HasSequence = true
			cmd.Sequence = n
		}
		return cmd, nil

	case "TIME":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "TIME requires start"}
		}
		cmd := Command{Kind: CmdTime, Start: args[0]}
		if len(args) > 1 {
			cmd.End = args[1]
		}
		return cmd, nil

	case "CAT":
		if err := rejectExtraArgs(args, "CAT"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdCat}, nil

	case "SLPROTO":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "SLPROTO requires version"}
		}
		if err := rejectExtraArgs(args[1:], "SLPROTO"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdSLProto, SLProtoVersion: args[0]}, nil

	case "AUTH":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "AUTH requires a value"}
		}
		return Command{Kind: CmdAuth, AuthValue: strings.Join(args, " ")}, nil

	case "USERAGENT":
		if len(args) == 0 {
			return Command{}, &InvalidCommandError{Reason: "USERAGENT requires a description"}
		}
		return Command{Kind: CmdUserAgent, UserAgentDescription: strings.Join(args, " ")}, nil

	case "ENDFETCH":
		if err := rejectExtraArgs(args, "ENDFETCH"); err != nil {
			return Command{}, err
		}
		return Command{Kind: CmdEndFetch}, nil

	default:
		return Command{}, &InvalidCommandError{Reason: fmt.Sprintf("unknown command: %q", parts[0])}
	}
}

// ToBytes serializes c for version v, including the trailing CRLF. It
// returns a *VersionMismatchError if c is not valid for v.
func (c Command) ToBytes(v Version) ([]byte, error) {
	if !c.IsValidFor(v) {
		return nil, &VersionMismatchError{Command: c.Kind.String(), Version: v}
	}
	return []byte(c.formatLine(v) + "\r\n"), nil
}

// IsValidFor reports whether c may be sent under protocol version v.
func (c Command) IsValidFor(v Version) bool {
	switch c.Kind {
	case CmdHello, CmdStation, CmdSelect, CmdData, CmdEnd, CmdBye, CmdInfo, CmdSLProto:
		return true
	case CmdBatch, CmdFetch, CmdTime, CmdCat:
		return v == V3
	case CmdAuth, CmdUserAgent, CmdEndFetch:
		return v == V4
	default:
		return false
	}
}

func (c Command) formatLine(v Version) string {
	switch c.Kind {
	case CmdHello:
		return "HELLO"
	case CmdStation:
		if v == V4 {
			return fmt.Sprintf("STATION %s_%s", c.Network, c.Station)
		}
		return fmt.Sprintf("STATION %s %s", c.Station, c.Network)
	case CmdSelect:
		return "SELECT " + c.Pattern
	case CmdData:
		s := "DATA"
		if c.HasSequence {
			s += " " + formatSequence(c.Sequence, v)
		}
		if c.Start != "" {
			s += " " + c.Start
		}
		if c.End != "" {
			s += " " + c.End
		}
		return s
	case CmdEnd:
		return "END"
	case CmdBye:
		return "BYE"
	case CmdInfo:
		return "INFO " + c.Level.String()
	case CmdBatch:
		return "BATCH"
	case CmdFetch:
		if c.HasSequence {
			return "FETCH " + formatSequence(c.Sequence, v)
		}
		return "FETCH"
	case CmdTime:
		if c.End != "" {
			return fmt.Sprintf("TIME %s %s", c.Start, c.End)
		}
		return "TIME " + c.Start
	case CmdCat:
		return "CAT"
	case CmdSLProto:
		return "SLPROTO " + c.SLProtoVersion
	case CmdAuth:
		return "AUTH " + c.AuthValue
	case CmdUserAgent:
		return "USERAGENT " + c.UserAgentDescription
	case CmdEndFetch:
		return "ENDFETCH"
	default:
		return ""
	}
}

// parseSequenceArg auto-detects v3 hex vs v4 decimal per §4.A/§4.B: exactly
// 6 hex digits parses as v3 hex, anything else falls back to decimal.
func parseSequenceArg(s string) (seq.Number, error) {
	var n seq.Number
	var err error
	if seq.IsHexLike(s) {
		n, err = seq.FromV3Hex(s)
	} else {
		n, err = seq.FromV4Decimal(s)
	}
	if err != nil {
		return 0, &InvalidSequenceError{Reason: err.Error()}
	}
	return n, nil
}

func formatSequence(n seq.Number, v Version) string {
	if v == V3 {
		return seq.ToV3Hex(n)
	}
	return seq.ToV4Decimal(n)
}

func rejectExtraArgs(args []string, command string) error {
	if len(args) > 0 {
		return &InvalidCommandError{Reason: fmt.Sprintf("%s: unexpected extra arguments", command)}
	}
	return nil
}
