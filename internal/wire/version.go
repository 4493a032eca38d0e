// Package wire implements the SeedLink text command/response grammar and the
// v3/v4 binary frame codecs (§4.B-§4.E). It depends only on internal/seq.
package wire

// Version selects which command/response/frame grammar applies to a
// connection. A connection starts as V3 and upgrades to V4 only after a
// successful SLPROTO negotiation (§4.M, §6).
type Version int

const (
	V3 Version = iota
	V4
)

func (v Version) String() string {
	switch v {
	case V3:
		return "v3"
	case V4:
		return "v4"
	default:
		return "unknown"
	}
}
