package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wlan-handoff-sim/internal/logging"
	"wlan-handoff-sim/internal/sim"
)

var (
	replayInput  string
	replaySpeed  float64
	replayEvents string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a handoff log file",
	Long:  "replay feeds handoff rows from a JSONL log back to the display and any sinks configured in the environment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		writer, cleanup, err := newWriters(ctx, nil, writerOptions{events: replayEvents})
		if err != nil {
			return err
		}
		defer cleanup()
		if writer.Empty() {
			return fmt.Errorf("nothing to replay to: choose --events or configure a sink")
		}

		n, err := sim.ReplayLogFile(ctx, replayInput, writer, replaySpeed)
		logging.FromContext(ctx).Info("replay finished", "rows", n, "input", replayInput)
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to handoff log file (JSONL)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier; 0 replays without delay")
	replayCmd.Flags().StringVar(&replayEvents, "events", eventsJSON, "Event output: none, json, color, tui or auto")
	replayCmd.MarkFlagRequired("input")
}
