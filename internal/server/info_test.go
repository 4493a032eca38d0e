package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

func TestXMLEscape(t *testing.T) {
	require.Equal(t, "a&amp;b&lt;c&gt;d&quot;e", xmlEscape(`a&b<c>d"e`))
	require.Equal(t, "hello", xmlEscape("hello"))
}

func TestInfoIDXML(t *testing.T) {
	xml := BuildInfoIDXML("SeedLink v3.1", "seedlink-go", "2026/02/12 10:30:00")
	require.Contains(t, xml, `software="SeedLink v3.1"`)
	require.Contains(t, xml, `organization="seedlink-go"`)
	require.Contains(t, xml, `started="2026/02/12 10:30:00"`)
}

func TestInfoStationsXML(t *testing.T) {
	stations := []store.StationInfo{
		{Network: "IU", Station: "ANMO", BeginSeq: 1, EndSeq: 5},
		{Network: "GE", Station: "WLF", BeginSeq: 2, EndSeq: 3},
	}
	xml := BuildInfoStationsXML(stations)
	require.Contains(t, xml, `name="ANMO"`)
	require.Contains(t, xml, `network="IU"`)
	require.Contains(t, xml, `begin_seq="000001"`)
	require.Contains(t, xml, `end_seq="000005"`)
	require.Contains(t, xml, `name="WLF"`)
}

func TestInfoStreamsXMLOneStation(t *testing.T) {
	streams := []store.StreamInfo{
		{Network: "IU", Station: "ANMO", Channel: "BHZ", Location: "00", TypeCode: "D", BeginSeq: 1, EndSeq: 3},
		{Network: "IU", Station: "ANMO", Channel: "BHN", Location: "00", TypeCode: "D", BeginSeq: 2, EndSeq: 4},
	}
	xml := BuildInfoStreamsXML(streams)
	require.Contains(t, xml, `<station name="ANMO" network="IU">`)
	require.Contains(t, xml, `seedname="BHZ"`)
	require.Contains(t, xml, `seedname="BHN"`)
	require.Equal(t, 1, strings.Count(xml, "<station "))
	require.Equal(t, 1, strings.Count(xml, "</station>"))
}

func TestInfoCapabilitiesXMLBareWithoutHostStats(t *testing.T) {
	xml := BuildInfoCapabilitiesXML("")
	require.Contains(t, xml, `<capability name="host-stats"/>`)
}

func TestInfoCapabilitiesXMLWithHostStats(t *testing.T) {
	xml := BuildInfoCapabilitiesXML(`cpu_percent="4.1" mem_used_mb="812.3" goroutines="37" connections="2"`)
	require.Contains(t, xml, `<capability name="host-stats" cpu_percent="4.1" mem_used_mb="812.3" goroutines="37" connections="2"/>`)
}

func TestInfoStreamsXMLMultipleStations(t *testing.T) {
	streams := []store.StreamInfo{
		{Network: "GE", Station: "WLF", Channel: "BHZ", Location: "00", TypeCode: "D", BeginSeq: 1, EndSeq: 1},
		{Network: "IU", Station: "ANMO", Channel: "BHZ", Location: "00", TypeCode: "D", BeginSeq: 2, EndSeq: 2},
	}
	xml := BuildInfoStreamsXML(streams)
	require.Equal(t, 2, strings.Count(xml, "<station "))
	require.Equal(t, 2, strings.Count(xml, "</station>"))
}
