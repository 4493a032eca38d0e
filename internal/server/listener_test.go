package server

import (
	"bufio"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

func TestListenerAcceptAndStream(t *testing.T) {
	st := store.New(10)
	payload := make([]byte, 512)
	copy(payload[15:18], "BHZ")
	st.Push("IU", "ANMO", payload)

	reg := NewRegistry()
	ln := NewListener("127.0.0.1:0", st, reg, testBanner(), nil, nil, zerolog.Nop())
	require.NoError(t, ln.Start())
	defer ln.Shutdown()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("STATION ANMO IU\r\n"))
	require.NoError(t, err)
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "OK\r\n", line)

	_, err = conn.Write([]byte("DATA\r\n"))
	require.NoError(t, err)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "OK\r\n", line)

	_, err = conn.Write([]byte("END\r\n"))
	require.NoError(t, err)

	buf := make([]byte, wire.V3FrameLen)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)

	f, err := wire.ParseV3Frame(buf)
	require.NoError(t, err)
	require.Equal(t, seq.Number(1), f.Sequence)

	require.Eventually(t, func() bool { return reg.Count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestListenerShutdownClosesAcceptLoop(t *testing.T) {
	reg := NewRegistry()
	ln := NewListener("127.0.0.1:0", store.New(10), reg, testBanner(), nil, nil, zerolog.Nop())
	require.NoError(t, ln.Start())

	addr := ln.Addr().String()
	ln.Shutdown()

	_, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
	require.Error(t, err)
}
