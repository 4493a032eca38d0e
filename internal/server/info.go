package server

import (
	"fmt"
	"strings"

	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

func xmlEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// BuildInfoIDXML renders the INFO ID response.
func BuildInfoIDXML(software, organization, started string) string {
	return fmt.Sprintf(
		"<?xml version=\"1.0\"?>\n<seedlink software=\"%s\" organization=\"%s\" started=\"%s\"/>\n",
		xmlEscape(software), xmlEscape(organization), xmlEscape(started),
	)
}

// BuildInfoStationsXML renders the INFO STATIONS response. Sequence numbers
// are rendered as 6-digit uppercase hex per the v3 wire encoding, even when
// the requesting connection negotiated v4.
func BuildInfoStationsXML(stations []store.StationInfo) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<seedlink>\n")
	for _, s := range stations {
		fmt.Fprintf(&b,
			"  <station name=\"%s\" network=\"%s\" description=\"\" begin_seq=\"%06X\" end_seq=\"%06X\" stream_check=\"enabled\"/>\n",
			xmlEscape(s.Station), xmlEscape(s.Network), s.BeginSeq, s.EndSeq,
		)
	}
	b.WriteString("</seedlink>\n")
	return b.String()
}

// BuildInfoStreamsXML renders the INFO STREAMS response, grouping
// consecutive entries for the same (network, station) under one <station>
// element the way the server's internal ordering naturally produces.
func BuildInfoStreamsXML(streams []store.StreamInfo) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<seedlink>\n")

	haveCurrent := false
	var curNetwork, curStation string
	for _, s := range streams {
		sameStation := haveCurrent && curNetwork == s.Network && curStation == s.Station
		if !sameStation {
			if haveCurrent {
				b.WriteString("  </station>\n")
			}
			fmt.Fprintf(&b, "  <station name=\"%s\" network=\"%s\">\n", xmlEscape(s.Station), xmlEscape(s.Network))
			curNetwork, curStation = s.Network, s.Station
			haveCurrent = true
		}
		fmt.Fprintf(&b,
			"    <stream seedname=\"%s\" location=\"%s\" type=\"%s\" begin_seq=\"%06X\" end_seq=\"%06X\"/>\n",
			xmlEscape(s.Channel), xmlEscape(s.Location), xmlEscape(s.TypeCode), s.BeginSeq, s.EndSeq,
		)
	}
	if haveCurrent {
		b.WriteString("  </station>\n")
	}
	b.WriteString("</seedlink>\n")
	return b.String()
}

// BuildInfoConnectionsXML renders the INFO CONNECTIONS response.
func BuildInfoConnectionsXML(conns []ConnectionInfo, formatTimestamp func(t ConnectionInfo) string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\"?>\n<seedlink>\n")
	for _, c := range conns {
		proto := "3.1"
		if c.ProtocolVersion.String() == "v4" {
			proto = "4.0"
		}
		host, port := splitHostPort(c.Addr)
		fmt.Fprintf(&b,
			"  <connection host=\"%s\" port=\"%s\" ctime=\"%s\" proto=\"%s\" useragent=\"%s\" state=\"%s\"/>\n",
			xmlEscape(host), port, formatTimestamp(c), proto, xmlEscape(c.UserAgent), xmlEscape(c.State),
		)
	}
	b.WriteString("</seedlink>\n")
	return b.String()
}

// BuildInfoGapsXML renders the INFO GAPS response. Gap detection is a
// spec.md Non-goal, so this is always an empty report rather than a
// fabricated one.
func BuildInfoGapsXML() string {
	return "<?xml version=\"1.0\"?>\n<seedlink>\n</seedlink>\n"
}

// BuildInfoFormatsXML renders the v4 INFO FORMATS response: the payload
// formats this server can emit.
func BuildInfoFormatsXML() string {
	return "<?xml version=\"1.0\"?>\n<seedlink>\n" +
		"  <format name=\"MSEED2\" subformat=\"DECAOTIR\"/>\n" +
		"  <format name=\"MSEED3\" subformat=\"DECAOTIR\"/>\n" +
		"</seedlink>\n"
}

// BuildInfoCapabilitiesXML renders the v4 INFO CAPABILITIES response,
// mirroring the HELLO banner's capability set. hostStatsAttrs, when
// non-empty, is embedded as extra attributes on the host-stats capability
// (see internal/health.Sampler.CapabilityAttrs); an empty string renders a
// bare tag with no attributes.
func BuildInfoCapabilitiesXML(hostStatsAttrs string) string {
	hostStats := "<capability name=\"host-stats\"/>"
	if hostStatsAttrs != "" {
		hostStats = fmt.Sprintf("<capability name=\"host-stats\" %s/>", hostStatsAttrs)
	}
	return "<?xml version=\"1.0\"?>\n<seedlink>\n" +
		"  <capability name=\"SLPROTO:4.0\"/>\n" +
		"  <capability name=\"SLPROTO:3.1\"/>\n" +
		"  " + hostStats + "\n" +
		"</seedlink>\n"
}

// BuildInfoAllXML concatenates ID, STATIONS, STREAMS, and CONNECTIONS,
// matching the original source's INFO ALL behavior of reporting everything
// in one response.
func BuildInfoAllXML(id, stations, streams, connections string) string {
	var b strings.Builder
	b.WriteString(id)
	b.WriteString(stations)
	b.WriteString(streams)
	b.WriteString(connections)
	return b.String()
}

func splitHostPort(addr interface{ String() string }) (host, port string) {
	s := addr.String()
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
