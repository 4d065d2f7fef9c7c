package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/logging"
	"wlan-handoff-sim/internal/scenario"
	"wlan-handoff-sim/internal/sim"
)

var (
	simPayloadSize    int
	simSimulationTime float64
	simConfigPath     string
	simScenario       string
	simSeed           int64
	simEvents         string
	simSamples        bool
	simLogFile        string
	simPcapPath       string
	simPcapLimit      int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation and print the throughput",
	Long: "simulate builds the topology of a scenario or config file, runs it to completion " +
		"and prints the application throughput received by the flow's destination.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, simConfigPath, simScenario)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("payload-size") {
			cfg.PayloadSize = simPayloadSize
		}
		if cmd.Flags().Changed("simulation-time") {
			cfg.SimulationTime = simSimulationTime
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = simSeed
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		writer, cleanup, err := newWriters(ctx, cfg, writerOptions{events: simEvents, logFile: simLogFile, samples: simSamples})
		if err != nil {
			return err
		}
		defer cleanup()

		simulator, err := sim.NewSimulator(cfg,
			sim.WithHandoffWriter(writer),
			sim.WithSampleWriter(writer),
			sim.WithResultWriter(writer))
		if err != nil {
			return err
		}
		if simPcapPath != "" {
			if err := attachPcap(simulator, writer); err != nil {
				return err
			}
		}

		res, err := simulator.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Throughput: %g Mbps\n", res.ThroughputMbps)
		return nil
	},
}

// loadConfig resolves the run configuration, reading the file when one is
// given and the named scenario otherwise.
func loadConfig(cmd *cobra.Command, path, name string) (*config.SimulationConfig, error) {
	cfg, err := scenario.Resolve(path, name)
	if err != nil {
		return nil, err
	}
	logging.FromContext(cmd.Context()).Debug("configuration loaded", "name", cfg.Name, "path", path)
	return cfg, nil
}

// attachPcap records the flow's delivered packets as Ethernet/IPv4/UDP
// frames. Its file is closed together with the other writers.
func attachPcap(s *sim.Simulator, mw *sim.MultiWriter) error {
	f, err := os.Create(simPcapPath)
	if err != nil {
		return err
	}
	src, dst := s.FlowEndpoints()
	pw, err := sim.NewPcapWriter(f, src, dst, s.Config().Flow.Port, simPcapLimit)
	if err != nil {
		f.Close()
		return err
	}
	mw.Add(pw)
	s.SetPacketWriter(mw)
	return nil
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simPayloadSize, "payload-size", config.DefaultPayloadSize, "Payload size of each UDP packet in bytes")
	f.Float64Var(&simSimulationTime, "simulation-time", config.DefaultSimulationTime, "Measured simulation time in seconds")
	f.StringVar(&simConfigPath, "config", "", "Path to a simulation configuration YAML")
	f.StringVar(&simScenario, "scenario", scenario.Default, "Built-in scenario to run when no config is given")
	f.Int64Var(&simSeed, "seed", 1, "Random seed for mobility")
	f.StringVar(&simEvents, "events", eventsNone, "Event output: none, json, color, tui or auto")
	f.BoolVar(&simSamples, "samples", false, "Include position samples in json/color event output")
	f.StringVar(&simLogFile, "log-file", "", "Path to export handoffs as JSONL (samples and results go to .samples and .results)")
	f.StringVar(&simPcapPath, "pcap", "", "Write delivered flow packets to this pcap file")
	f.IntVar(&simPcapLimit, "pcap-limit", 1000, "Maximum number of packets written to the pcap file (0 for all)")
}
