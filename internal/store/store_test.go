package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/seedlink-go/internal/seq"
)

func dummyPayload() []byte {
	return make([]byte, payloadLen)
}

func channelPayload(location, channel string) []byte {
	p := make([]byte, payloadLen)
	copy(p[13:15], location)
	copy(p[15:18], channel)
	return p
}

func TestPushAssignsIncreasingSequences(t *testing.T) {
	s := New(100)
	s1 := s.Push("IU", "ANMO", dummyPayload())
	s2 := s.Push("IU", "ANMO", dummyPayload())
	s3 := s.Push("GE", "WLF", dummyPayload())
	require.Equal(t, seq.Number(1), s1)
	require.Equal(t, seq.Number(2), s2)
	require.Equal(t, seq.Number(3), s3)
}

func TestReadSinceFiltersBySubscription(t *testing.T) {
	s := New(100)
	s.Push("IU", "ANMO", dummyPayload())
	s.Push("GE", "WLF", dummyPayload())
	s.Push("IU", "ANMO", dummyPayload())

	subs := []Subscription{{Network: "IU", Station: "ANMO"}}
	records := s.ReadSince(0, subs)
	require.Len(t, records, 2)
	require.Equal(t, seq.Number(1), records[0].Sequence)
	require.Equal(t, seq.Number(3), records[1].Sequence)
}

func TestReadSinceRespectsCursor(t *testing.T) {
	s := New(100)
	s.Push("IU", "ANMO", dummyPayload())
	s.Push("IU", "ANMO", dummyPayload())
	s.Push("IU", "ANMO", dummyPayload())

	subs := []Subscription{{Network: "IU", Station: "ANMO"}}
	records := s.ReadSince(2, subs)
	require.Len(t, records, 1)
	require.Equal(t, seq.Number(3), records[0].Sequence)
}

func TestEvictionOnCapacity(t *testing.T) {
	s := New(3)
	for i := 0; i < 5; i++ {
		s.Push("IU", "ANMO", dummyPayload())
	}
	subs := []Subscription{{Network: "IU", Station: "ANMO"}}
	records := s.ReadSince(0, subs)
	require.Len(t, records, 3)
	require.Equal(t, seq.Number(3), records[0].Sequence)
	require.Equal(t, seq.Number(4), records[1].Sequence)
	require.Equal(t, seq.Number(5), records[2].Sequence)
}

func TestSequenceWrapsAtV3Max(t *testing.T) {
	s := New(10)
	s.mu.Lock()
	s.nextSeq = uint64(seq.V3Max)
	s.mu.Unlock()

	s1 := s.Push("IU", "ANMO", dummyPayload())
	s2 := s.Push("IU", "ANMO", dummyPayload())
	require.Equal(t, seq.V3Max, s1)
	require.Equal(t, seq.Number(1), s2)
}

func TestPushRejectsWrongPayloadSize(t *testing.T) {
	s := New(10)
	require.Panics(t, func() {
		s.Push("IU", "ANMO", make([]byte, 100))
	})
}

func TestStationInfoGroupsInterleavedStations(t *testing.T) {
	s := New(100)
	// Pushes interleave WLF and ANMO, as concurrent ingestion would.
	s.Push("GE", "WLF", dummyPayload())
	s.Push("IU", "ANMO", dummyPayload())
	s.Push("GE", "WLF", dummyPayload())
	s.Push("IU", "ANMO", dummyPayload())

	infos := s.StationInfo()
	require.Len(t, infos, 2)
	// Sorted by (network, station), not first-push order, so a caller
	// building INFO STREAMS-style output sees one contiguous run per station.
	require.Equal(t, "GE", infos[0].Network)
	require.Equal(t, "WLF", infos[0].Station)
	require.Equal(t, "IU", infos[1].Network)
	require.Equal(t, "ANMO", infos[1].Station)
}

func TestStreamInfoGroupsInterleavedStations(t *testing.T) {
	s := New(100)
	s.Push("GE", "WLF", channelPayload("00", "BHZ"))
	s.Push("IU", "ANMO", channelPayload("00", "BHZ"))
	s.Push("GE", "WLF", channelPayload("00", "BHN"))
	s.Push("IU", "ANMO", channelPayload("00", "BHN"))

	streams := s.StreamInfo()
	require.Len(t, streams, 4)
	// Every GE/WLF stream must come before every IU/ANMO stream so a
	// consumer grouping consecutive entries under one <station> element
	// never has to reopen a station it already closed.
	for i, st := range streams[:2] {
		require.Equalf(t, "GE", st.Network, "entry %d", i)
		require.Equalf(t, "WLF", st.Station, "entry %d", i)
	}
	for i, st := range streams[2:] {
		require.Equalf(t, "IU", st.Network, "entry %d", i)
		require.Equalf(t, "ANMO", st.Station, "entry %d", i)
	}
}

func TestNotifiedWakesOnPush(t *testing.T) {
	s := New(10)
	waitCh := s.Notified()

	done := make(chan struct{})
	go func() {
		s.Push("IU", "ANMO", dummyPayload())
		close(done)
	}()

	select {
	case <-waitCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for push notification")
	}
	<-done
}
