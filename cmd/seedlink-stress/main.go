// Command seedlink-stress measures ring push throughput and fan-out
// delivery to many concurrent SeedLink clients: it starts an embedded
// seedlinkd listener, connects N clients subscribed to one station, pushes
// M records directly into the ring, and reports how long full delivery
// took, the way loadtest/main.go ramps up WebSocket connections and
// reports throughput against a running server.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/rs/zerolog"

	"github.com/luhtfiimanal/seedlink-go/client"
	"github.com/luhtfiimanal/seedlink-go/internal/server"
	"github.com/luhtfiimanal/seedlink-go/internal/store"
)

type config struct {
	clients      int
	records      int
	ringCapacity int
	station      string
	network      string
	timeout      time.Duration
}

func main() {
	cfg := parseFlags()

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("seedlink-go stress test")
	fmt.Println(strings.Repeat("=", 60))

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "seedlink-stress").Logger()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	st := store.New(cfg.ringCapacity)
	reg := server.NewRegistry()
	banner := server.Banner{Software: "SeedLink v3.1", Organization: "seedlink-stress"}
	ln := server.NewListener("127.0.0.1:0", st, reg, banner, nil, nil, log)
	if err := ln.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to bind server: %v\n", err)
		os.Exit(1)
	}
	defer ln.Shutdown()
	addr := ln.Addr().String()

	fmt.Printf("Server:  %s (ring_capacity=%d)\n", addr, cfg.ringCapacity)
	fmt.Printf("Clients: %d\n", cfg.clients)
	fmt.Printf("Records: %d\n\n", cfg.records)

	totalReceived := new(int64)
	perClientCounts := make([]int64, cfg.clients)
	ready := make(chan struct{})
	done := make(chan struct{})
	var wg sync.WaitGroup

	connectStart := time.Now()
	for i := 0; i < cfg.clients; i++ {
		wg.Add(1)
		go runClient(i, addr, cfg, totalReceived, &perClientCounts[i], ready, &wg)
	}

	// Wait for every client goroutine to subscribe before pushing, so no
	// record is pushed before every cursor is armed.
	waitForReady(ready, cfg.clients)
	connectElapsed := time.Since(connectStart)
	fmt.Printf("Connecting %d clients... done (%s)\n", cfg.clients, connectElapsed.Round(time.Millisecond))

	payload := makePayload(cfg.station, cfg.network)
	pushStart := time.Now()
	for i := 0; i < cfg.records; i++ {
		st.Push(cfg.network, cfg.station, payload)
	}
	pushElapsed := time.Since(pushStart)
	fmt.Printf("Pushing %d records... done (%s)\n", cfg.records, pushElapsed.Round(time.Millisecond))

	go func() {
		wg.Wait()
		close(done)
	}()

	waitStart := time.Now()
	timedOut := false
	select {
	case <-done:
	case <-time.After(cfg.timeout):
		timedOut = true
	}
	waitElapsed := time.Since(waitStart)
	if timedOut {
		fmt.Printf("Waiting for delivery... TIMEOUT after %s\n", waitElapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("Waiting for delivery... done (%s)\n", waitElapsed.Round(time.Millisecond))
	}

	printReport(cfg, atomic.LoadInt64(totalReceived), perClientCounts, connectElapsed, pushElapsed, waitElapsed, timedOut)
}

func runClient(id int, addr string, cfg config, totalReceived, myCount *int64, ready chan<- struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	clientCfg := client.DefaultConfig()
	clientCfg.PreferV4 = false
	clientCfg.ReadTimeout = cfg.timeout

	c, err := client.ConnectWithConfig(addr, clientCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  client %d: connect failed: %v\n", id, err)
		ready <- struct{}{}
		return
	}
	defer c.Close()

	if err := c.Station(cfg.station, cfg.network); err != nil {
		fmt.Fprintf(os.Stderr, "  client %d: STATION failed: %v\n", id, err)
		ready <- struct{}{}
		return
	}
	if err := c.Data(); err != nil {
		fmt.Fprintf(os.Stderr, "  client %d: DATA failed: %v\n", id, err)
		ready <- struct{}{}
		return
	}
	if err := c.EndStream(); err != nil {
		fmt.Fprintf(os.Stderr, "  client %d: END failed: %v\n", id, err)
		ready <- struct{}{}
		return
	}

	ready <- struct{}{}

	for atomic.LoadInt64(myCount) < int64(cfg.records) {
		frame, err := c.NextFrame()
		if err != nil || frame == nil {
			return
		}
		atomic.AddInt64(myCount, 1)
		atomic.AddInt64(totalReceived, 1)
	}
}

func waitForReady(ready <-chan struct{}, n int) {
	for i := 0; i < n; i++ {
		<-ready
	}
}

// makePayload builds a 512-byte miniSEED-shaped payload with station at
// bytes [8:13] and network at bytes [18:20], matching the header layout
// client.stationKey expects.
func makePayload(station, network string) []byte {
	payload := make([]byte, 512)
	for i := range payload[8:13] {
		payload[8+i] = ' '
	}
	copy(payload[8:13], station)
	for i := range payload[18:20] {
		payload[18+i] = ' '
	}
	copy(payload[18:20], network)
	return payload
}

func printReport(cfg config, actualTotal int64, perClient []int64, connectElapsed, pushElapsed, waitElapsed time.Duration, timedOut bool) {
	expectedTotal := int64(cfg.clients) * int64(cfg.records)
	wallClock := connectElapsed + pushElapsed + waitElapsed

	pushRate := float64(cfg.records) / pushElapsed.Seconds()
	recvRate := float64(0)
	if waitElapsed.Seconds() > 0 {
		recvRate = float64(actualTotal) / waitElapsed.Seconds()
	}

	min, max, sum := int64(0), int64(0), int64(0)
	for i, c := range perClient {
		if i == 0 || c < min {
			min = c
		}
		if c > max {
			max = c
		}
		sum += c
	}
	avg := int64(0)
	if len(perClient) > 0 {
		avg = sum / int64(len(perClient))
	}

	fmt.Println()
	fmt.Println("Results")
	fmt.Println("-------")
	fmt.Printf("Total frames delivered: %d (%d clients x %d records)\n", actualTotal, cfg.clients, cfg.records)
	fmt.Printf("Push throughput:        %.0f records/sec\n", pushRate)
	fmt.Printf("Receive throughput:     %.0f frames/sec\n", recvRate)
	fmt.Printf("Wall clock:             %s\n", wallClock.Round(time.Millisecond))
	fmt.Println()
	fmt.Printf("Per-client: min=%d max=%d avg=%d\n", min, max, avg)

	switch {
	case actualTotal == expectedTotal && !timedOut:
		fmt.Println("All clients received all records: OK")
	case timedOut:
		fmt.Printf("WARNING: timeout - delivered %d/%d (%.1f%%)\n", actualTotal, expectedTotal, float64(actualTotal)/float64(expectedTotal)*100)
	default:
		fmt.Printf("MISMATCH: expected %d, got %d (%.1f%%)\n", expectedTotal, actualTotal, float64(actualTotal)/float64(expectedTotal)*100)
	}
}

func parseFlags() config {
	cfg := config{}
	flag.IntVar(&cfg.clients, "clients", getEnvInt("CLIENTS", 50), "number of concurrent client connections")
	flag.IntVar(&cfg.records, "records", getEnvInt("RECORDS", 10_000), "number of records to push")
	flag.IntVar(&cfg.ringCapacity, "ring-cap", getEnvInt("RING_CAP", 20_000), "ring buffer capacity")
	flag.StringVar(&cfg.station, "station", "ANMO", "station code")
	flag.StringVar(&cfg.network, "network", "IU", "network code")
	timeoutSec := flag.Int("timeout", 30, "delivery wait timeout in seconds")
	flag.Parse()
	cfg.timeout = time.Duration(*timeoutSec) * time.Second
	return cfg
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(v, "_", "")); err == nil {
			return n
		}
	}
	return defaultValue
}
