package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/logging"
	"wlan-handoff-sim/internal/sim"
)

// Event display modes for --events.
const (
	eventsNone  = "none"
	eventsJSON  = "json"
	eventsColor = "color"
	eventsTUI   = "tui"
	eventsAuto  = "auto"
)

type writerOptions struct {
	events  string
	logFile string
	samples bool
}

// resolveEvents turns auto into colour output on a terminal and no output
// otherwise.
func resolveEvents(mode string) (string, error) {
	switch mode {
	case "", eventsNone:
		return eventsNone, nil
	case eventsJSON, eventsColor, eventsTUI:
		return mode, nil
	case eventsAuto:
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return eventsColor, nil
		}
		return eventsNone, nil
	default:
		return "", fmt.Errorf("unknown events mode %q (want none, json, color, tui or auto)", mode)
	}
}

// newWriters sets up the display writer, the optional JSONL log files and
// every sink configured through the environment. The returned cleanup
// closes whatever was opened.
func newWriters(ctx context.Context, cfg *config.SimulationConfig, opts writerOptions) (*sim.MultiWriter, func(), error) {
	mode, err := resolveEvents(opts.events)
	if err != nil {
		return nil, nil, err
	}
	mw := sim.NewMultiWriter()
	cleanup := func() {
		if err := mw.Close(); err != nil {
			logging.FromContext(ctx).Warn("closing writers", "err", err)
		}
	}

	switch mode {
	case eventsJSON:
		mw.Add(sim.NewStdoutWriter(cfg, false, opts.samples))
	case eventsColor:
		mw.Add(sim.NewStdoutWriter(cfg, true, opts.samples))
	case eventsTUI:
		mw.Add(sim.NewTUIWriter(cfg))
	}

	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(sim.FilePaths{
			Handoffs: opts.logFile,
			Samples:  opts.logFile + ".samples",
			Results:  opts.logFile + ".results",
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		mw.Add(fw)
	}

	if err := addEnvSinks(ctx, mw); err != nil {
		cleanup()
		return nil, nil, err
	}
	return mw, cleanup, nil
}

// addEnvSinks registers the database and messaging sinks whose endpoints
// are set in the environment.
func addEnvSinks(ctx context.Context, mw *sim.MultiWriter) error {
	log := logging.FromContext(ctx)

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		db := os.Getenv("GREPTIMEDB_DATABASE")
		if db == "" {
			db = "public"
		}
		w, err := sim.NewGreptimeDBWriter(endpoint, db)
		if err != nil {
			return fmt.Errorf("init GreptimeDB writer: %w", err)
		}
		log.Info("writing to GreptimeDB", "endpoint", endpoint, "database", db)
		mw.Add(w)
	}

	if url := os.Getenv("NATS_URL"); url != "" {
		w, err := sim.NewNATSWriter(url, os.Getenv("NATS_SUBJECT"))
		if err != nil {
			return fmt.Errorf("init NATS writer: %w", err)
		}
		log.Info("publishing to NATS", "url", url)
		mw.Add(w)
	}

	if addr := os.Getenv("CLICKHOUSE_ADDR"); addr != "" {
		w, err := sim.NewClickHouseWriter(ctx, sim.ClickHouseOptions{
			Addr:     addr,
			Database: os.Getenv("CLICKHOUSE_DATABASE"),
			Username: os.Getenv("CLICKHOUSE_USER"),
			Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		})
		if err != nil {
			return fmt.Errorf("init ClickHouse writer: %w", err)
		}
		mw.Add(w)
	}
	return nil
}
