// Package selectpattern implements the SELECT command's stream filter
// grammar (§4.G): "[LL]CCC[.T]", where LL is a 2-char location code, CCC a
// 3-char channel code, and .T an optional quality/type suffix, each
// position individually wildcardable with '?'.
package selectpattern

// patternChar is either a literal byte to match or a '?' wildcard.
type patternChar struct {
	literal  byte
	wildcard bool
}

func (p patternChar) matches(b byte) bool {
	return p.wildcard || p.literal == b
}

func fromByte(b byte) patternChar {
	if b == '?' {
		return patternChar{wildcard: true}
	}
	return patternChar{literal: b}
}

// Pattern is a parsed SELECT pattern.
type Pattern struct {
	hasLocation bool
	location    [2]patternChar
	channel     [3]patternChar
	hasType     bool
	typeCode    byte
}

// Parse parses a SELECT pattern string. Returns ok=false for an empty
// string or an empty main part once any ".T" suffix is stripped; 1- and
// 2-character main parts are left-padded with wildcards.
func Parse(pattern string) (Pattern, bool) {
	if pattern == "" {
		return Pattern{}, false
	}
	b := []byte(pattern)

	main := b
	var typeCode byte
	hasType := false
	if len(b) >= 2 && b[len(b)-2] == '.' {
		typeCode = b[len(b)-1]
		hasType = true
		main = b[:len(b)-2]
	}

	var p Pattern
	p.hasType = hasType
	p.typeCode = typeCode

	switch len(main) {
	case 0:
		return Pattern{}, false
	case 1:
		// "Z" -> "??Z"
		p.channel = [3]patternChar{{wildcard: true}, {wildcard: true}, fromByte(main[0])}
	case 2:
		// "HZ" -> "?HZ"
		p.channel = [3]patternChar{{wildcard: true}, fromByte(main[0]), fromByte(main[1])}
	case 3:
		p.channel = [3]patternChar{fromByte(main[0]), fromByte(main[1]), fromByte(main[2])}
	case 5:
		p.hasLocation = true
		p.location = [2]patternChar{fromByte(main[0]), fromByte(main[1])}
		p.channel = [3]patternChar{fromByte(main[2]), fromByte(main[3]), fromByte(main[4])}
	default:
		// len == 4 or len > 5: last 3 bytes are the channel, the rest the
		// location (left-padded with a wildcard if only 1 byte remains).
		if len(main) < 3 {
			return Pattern{}, false
		}
		split := len(main) - 3
		locBytes := main[:split]
		chBytes := main[split:]
		p.hasLocation = true
		if len(locBytes) >= 2 {
			p.location = [2]patternChar{fromByte(locBytes[0]), fromByte(locBytes[1])}
		} else {
			p.location = [2]patternChar{{wildcard: true}, fromByte(locBytes[0])}
		}
		p.channel = [3]patternChar{fromByte(chBytes[0]), fromByte(chBytes[1]), fromByte(chBytes[2])}
	}

	return p, true
}

// MatchesPayload reports whether a miniSEED v2 payload's location, channel,
// and quality/type fields satisfy p. Fixed header offsets: byte 6 is the
// quality/type indicator, bytes 13-14 are the location code, bytes 15-17
// are the channel code.
func (p Pattern) MatchesPayload(payload []byte) bool {
	if len(payload) < 20 {
		return false
	}

	if !p.channel[0].matches(payload[15]) || !p.channel[1].matches(payload[16]) || !p.channel[2].matches(payload[17]) {
		return false
	}

	if p.hasLocation && (!p.location[0].matches(payload[13]) || !p.location[1].matches(payload[14])) {
		return false
	}

	if p.hasType && !fromByte(p.typeCode).matches(payload[6]) {
		return false
	}

	return true
}
