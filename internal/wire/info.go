package wire

import "strings"

// InfoLevel is the argument of the INFO command (§4.L).
type InfoLevel int

const (
	InfoID InfoLevel = iota
	InfoStations
	InfoStreams
	InfoConnections
	InfoGaps         // v3 only
	InfoAll          // v3 only; concatenates ID+STATIONS+STREAMS+CONNECTIONS
	InfoFormats      // v4 only
	InfoCapabilities // v4 only
)

// ParseInfoLevel parses an INFO level keyword, case-insensitive.
func ParseInfoLevel(s string) (InfoLevel, error) {
	switch strings.ToUpper(s) {
	case "ID":
		return InfoID, nil
	case "STATIONS":
		return InfoStations, nil
	case "STREAMS":
		return InfoStreams, nil
	case "CONNECTIONS":
		return InfoConnections, nil
	case "GAPS":
		return InfoGaps, nil
	case "ALL":
		return InfoAll, nil
	case "FORMATS":
		return InfoFormats, nil
	case "CAPABILITIES":
		return InfoCapabilities, nil
	default:
		return 0, &InvalidInfoLevelError{Level: s}
	}
}

// String renders the wire keyword (uppercase).
func (l InfoLevel) String() string {
	switch l {
	case InfoID:
		return "ID"
	case InfoStations:
		return "STATIONS"
	case InfoStreams:
		return "STREAMS"
	case InfoConnections:
		return "CONNECTIONS"
	case InfoGaps:
		return "GAPS"
	case InfoAll:
		return "ALL"
	case InfoFormats:
		return "FORMATS"
	case InfoCapabilities:
		return "CAPABILITIES"
	default:
		return "UNKNOWN"
	}
}

// IsValidFor reports whether this INFO level may be requested under version v.
func (l InfoLevel) IsValidFor(v Version) bool {
	switch l {
	case InfoID, InfoStations, InfoStreams, InfoConnections:
		return true
	case InfoGaps, InfoAll:
		return v == V3
	case InfoFormats, InfoCapabilities:
		return v == V4
	default:
		return false
	}
}
