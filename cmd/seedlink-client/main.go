// Command seedlink-client is a small example consumer of the client
// package: it dials a SeedLink server, subscribes to one station, streams
// frames to stdout, and reconnects transparently on disconnect.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/rs/zerolog"

	"github.com/luhtfiimanal/seedlink-go/client"
	"github.com/luhtfiimanal/seedlink-go/internal/seq"
	"github.com/luhtfiimanal/seedlink-go/internal/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:18000", "seedlinkd address")
	station := flag.String("station", "ANMO", "station code")
	network := flag.String("network", "IU", "network code")
	selector := flag.String("select", "", "SELECT pattern, e.g. BHZ (empty: all channels)")
	preferV4 := flag.Bool("v4", true, "negotiate SeedLink v4 if the server supports it")
	fetch := flag.Bool("fetch", false, "drain what's buffered and exit, instead of streaming continuously")
	reconnect := flag.Bool("reconnect", true, "reconnect automatically on disconnect")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error")
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("component", "seedlink-client").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := client.DefaultConfig()
	cfg.PreferV4 = *preferV4

	if *fetch {
		runFetch(log, *addr, cfg, *station, *network, *selector)
		return
	}
	if *reconnect {
		runReconnecting(ctx, log, *addr, cfg, *station, *network, *selector)
		return
	}
	runOnce(ctx, log, *addr, cfg, *station, *network, *selector)
}

func runFetch(log zerolog.Logger, addr string, cfg client.Config, station, network, selector string) {
	c, err := client.ConnectWithConfig(addr, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer c.Close()
	logServerInfo(log, c)

	if err := c.Station(station, network); err != nil {
		log.Fatal().Err(err).Msg("station failed")
	}
	if selector != "" {
		if err := c.Select(selector); err != nil {
			log.Fatal().Err(err).Msg("select failed")
		}
	}
	if err := c.Fetch(); err != nil {
		log.Fatal().Err(err).Msg("fetch failed")
	}

	for {
		frame, err := c.NextFrame()
		if err != nil {
			log.Fatal().Err(err).Msg("read frame failed")
		}
		if frame == nil {
			log.Info().Msg("fetch drained")
			return
		}
		printFrame(log, frame)
	}
}

func runOnce(ctx context.Context, log zerolog.Logger, addr string, cfg client.Config, station, network, selector string) {
	c, err := client.ConnectWithConfig(addr, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer c.Bye()
	logServerInfo(log, c)

	if err := subscribe(c, station, network, selector); err != nil {
		log.Fatal().Err(err).Msg("subscribe failed")
	}
	if err := c.EndStream(); err != nil {
		log.Fatal().Err(err).Msg("end failed")
	}

	frames := make(chan *wire.Frame)
	errs := make(chan error, 1)
	go func() {
		for {
			frame, err := c.NextFrame()
			if err != nil {
				errs <- err
				return
			}
			if frame == nil {
				close(frames)
				return
			}
			frames <- frame
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown signal received")
			return
		case err := <-errs:
			log.Error().Err(err).Msg("stream error")
			return
		case frame, ok := <-frames:
			if !ok {
				log.Info().Msg("stream ended")
				return
			}
			printFrame(log, frame)
		}
	}
}

func runReconnecting(ctx context.Context, log zerolog.Logger, addr string, cfg client.Config, station, network, selector string) {
	rc, err := client.ConnectReconnectingWithConfig(addr, cfg, client.DefaultReconnectConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("connect failed")
	}
	defer rc.Close()

	if err := rc.Station(station, network); err != nil {
		log.Fatal().Err(err).Msg("station failed")
	}
	if selector != "" {
		if err := rc.Select(selector); err != nil {
			log.Fatal().Err(err).Msg("select failed")
		}
	}
	if err := rc.EndStream(); err != nil {
		log.Fatal().Err(err).Msg("end failed")
	}

	frames := make(chan *wire.Frame)
	errs := make(chan error, 1)
	go func() {
		for {
			frame, err := rc.NextFrame()
			if err != nil {
				errs <- err
				return
			}
			if frame == nil {
				close(frames)
				return
			}
			frames <- frame
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("sequences", formatSequences(rc.Sequences())).Msg("shutdown signal received")
			return
		case err := <-errs:
			log.Error().Err(err).Msg("stream error")
			return
		case frame, ok := <-frames:
			if !ok {
				log.Info().Msg("reconnect attempts exhausted")
				return
			}
			printFrame(log, frame)
		}
	}
}

func subscribe(c *client.Client, station, network, selector string) error {
	if err := c.Station(station, network); err != nil {
		return err
	}
	if selector == "" {
		return nil
	}
	return c.Select(selector)
}

func logServerInfo(log zerolog.Logger, c *client.Client) {
	info := c.ServerInfo()
	log.Info().
		Str("software", info.Software).
		Str("organization", info.Organization).
		Strs("capabilities", info.Capabilities).
		Bool("supports_v4", info.SupportsV4).
		Str("version", c.Version().String()).
		Msg("connected")
}

func formatSequences(sequences map[client.StationKey]seq.Number) string {
	var b strings.Builder
	for k, v := range sequences {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s_%s=%s", k.Network, k.Station, v)
	}
	return b.String()
}

func printFrame(log zerolog.Logger, f *wire.Frame) {
	if f.IsV4 {
		fmt.Printf("seq=%s station=%s format=%c/%c bytes=%d\n",
			f.Sequence, f.StationID, f.Format, f.Subformat, len(f.Payload))
	} else {
		fmt.Printf("seq=%s bytes=%d\n", f.Sequence, len(f.Payload))
	}
	log.Debug().Str("sequence", f.Sequence.String()).Str("station", f.StationID).Msg("frame")
}
