package client_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/seedlink-go/client"
	"github.com/luhtfiimanal/seedlink-go/client/internal/mocktransport"
	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

func TestReconnectDedupesAndResumesAfterDisconnect(t *testing.T) {
	payload := miniseedPayload("IU", "ANMO")
	cfg := mocktransport.Config{
		HelloLine1: "SeedLink v3.1 (2020.075)",
		HelloLine2: "Mock Server",
		ConnectionFrames: [][][]byte{
			{v3Frame(t, seq.Number(1), payload), v3Frame(t, seq.Number(2), payload)},
			{v3Frame(t, seq.Number(2), payload), v3Frame(t, seq.Number(3), payload)},
		},
		CloseAfterStream: true,
		MaxConnections:   2,
	}
	srv, err := mocktransport.Start(cfg)
	require.NoError(t, err)
	defer srv.Close()

	reconnect := client.ReconnectConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1,
		MaxAttempts:    5,
	}
	rc, err := client.ConnectReconnectingWithConfig(srv.Addr(), client.DefaultConfig(), reconnect)
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Station("ANMO", "IU"))
	require.NoError(t, rc.EndStream())

	f1, err := rc.NextFrame()
	require.NoError(t, err)
	require.NotNil(t, f1)
	require.Equal(t, seq.Number(1), f1.Sequence)

	f2, err := rc.NextFrame()
	require.NoError(t, err)
	require.NotNil(t, f2)
	require.Equal(t, seq.Number(2), f2.Sequence)

	// The underlying connection closed after 2 frames; NextFrame should
	// transparently reconnect, replay STATION+END, skip the resent
	// duplicate at sequence 2, and deliver sequence 3.
	f3, err := rc.NextFrame()
	require.NoError(t, err)
	require.NotNil(t, f3)
	require.Equal(t, seq.Number(3), f3.Sequence)

	require.Len(t, srv.Captured().All(), 2)
	require.Equal(t, []string{"HELLO", "STATION ANMO IU", "END"}, srv.Captured().Connection(0))
	require.Equal(t, []string{"HELLO", "STATION ANMO IU", "END"}, srv.Captured().Connection(1))

	n, ok := rc.LastSequence("IU", "ANMO")
	require.True(t, ok)
	require.Equal(t, seq.Number(3), n)
}

func TestReconnectMultiStationResumesEachSequence(t *testing.T) {
	anmo := miniseedPayload("IU", "ANMO")
	wlf := miniseedPayload("GE", "WLF")
	cfg := mocktransport.Config{
		HelloLine1: "SeedLink v3.1 (2020.075)",
		HelloLine2: "Mock Server",
		ConnectionFrames: [][][]byte{
			{
				v3Frame(t, seq.Number(1), anmo),
				v3Frame(t, seq.Number(11), anmo),
				v3Frame(t, seq.Number(5), wlf),
			},
			{
				// Resent duplicates at each station's last sequence, then
				// one new record per station.
				v3Frame(t, seq.Number(11), anmo),
				v3Frame(t, seq.Number(12), anmo),
				v3Frame(t, seq.Number(5), wlf),
				v3Frame(t, seq.Number(6), wlf),
			},
		},
		CloseAfterStream: true,
		MaxConnections:   2,
	}
	srv, err := mocktransport.Start(cfg)
	require.NoError(t, err)
	defer srv.Close()

	reconnect := client.ReconnectConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1,
		MaxAttempts:    5,
	}
	rc, err := client.ConnectReconnectingWithConfig(srv.Addr(), client.DefaultConfig(), reconnect)
	require.NoError(t, err)
	defer rc.Close()

	// Multi-station request: each station's DATA arms streaming from
	// whatever cursor the server holds for it, before the next STATION.
	require.NoError(t, rc.Station("ANMO", "IU"))
	require.NoError(t, rc.Data())
	require.NoError(t, rc.Station("WLF", "GE"))
	require.NoError(t, rc.Data())
	require.NoError(t, rc.EndStream())

	for i := 0; i < 3; i++ {
		f, err := rc.NextFrame()
		require.NoError(t, err)
		require.NotNil(t, f)
	}

	// Disconnect after 3 frames triggers reconnect; the dup at each
	// station's last sequence must be dropped and only the new record for
	// that station delivered.
	f4, err := rc.NextFrame()
	require.NoError(t, err)
	require.NotNil(t, f4)
	f5, err := rc.NextFrame()
	require.NoError(t, err)
	require.NotNil(t, f5)

	got := map[string]seq.Number{}
	for _, f := range []*wire.Frame{f4, f5} {
		station := strings.TrimRight(string(f.Payload[8:13]), " ")
		got[station] = f.Sequence
	}
	require.Equal(t, seq.Number(12), got["ANMO"])
	require.Equal(t, seq.Number(6), got["WLF"])

	// ANMO must resume from its own last sequence (11), never WLF's lower
	// one, and vice versa: proves resumeData is not using a cross-station
	// maximum.
	require.Equal(t, []string{
		"HELLO", "STATION ANMO IU", "DATA 00000B", "STATION WLF GE", "DATA 000005", "END",
	}, srv.Captured().Connection(1))

	anmoSeq, ok := rc.LastSequence("IU", "ANMO")
	require.True(t, ok)
	require.Equal(t, seq.Number(12), anmoSeq)
	wlfSeq, ok := rc.LastSequence("GE", "WLF")
	require.True(t, ok)
	require.Equal(t, seq.Number(6), wlfSeq)
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	cfg := mocktransport.Config{
		HelloLine1:       "SeedLink v3.1 (2020.075)",
		HelloLine2:       "Mock Server",
		CloseAfterStream: true,
		MaxConnections:   1,
	}
	srv, err := mocktransport.Start(cfg)
	require.NoError(t, err)

	reconnect := client.ReconnectConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     1,
		MaxAttempts:    2,
	}
	rc, err := client.ConnectReconnectingWithConfig(srv.Addr(), client.DefaultConfig(), reconnect)
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Station("ANMO", "IU"))
	require.NoError(t, rc.EndStream())

	// Close the listener before reading: the lone accepted connection will
	// still close itself (no frames scripted, CloseAfterStream), producing
	// a clean EOF, but every reconnect dial attempt afterward fails fast
	// because nothing is listening anymore.
	srv.Close()

	f, err := rc.NextFrame()
	require.NoError(t, err)
	require.Nil(t, f)
}
