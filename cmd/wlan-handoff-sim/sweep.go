package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"wlan-handoff-sim/internal/scenario"
	"wlan-handoff-sim/internal/sim"
)

var (
	sweepConfigPath     string
	sweepScenario       string
	sweepSeeds          int
	sweepSeedBase       int64
	sweepPayloadSizes   []int
	sweepSimulationTime float64
	sweepParallel       int
	sweepLogFile        string
)

// sweepStats summarises the runs of one payload size.
type sweepStats struct {
	PayloadSize int
	Runs        int
	Mean        float64
	StdDev      float64
	Min         float64
	Max         float64
	Handoffs    float64
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a scenario across seeds and payload sizes",
	Long: "sweep runs independent simulations for every combination of seed and payload size " +
		"in parallel and prints throughput statistics per payload size.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sweepSeeds < 1 {
			return fmt.Errorf("--seeds must be at least 1")
		}
		if sweepParallel < 1 {
			return fmt.Errorf("--parallel must be at least 1")
		}
		if len(sweepPayloadSizes) == 0 {
			return fmt.Errorf("--payload-sizes must not be empty")
		}
		base, err := loadConfig(cmd, sweepConfigPath, sweepScenario)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		writer, cleanup, err := newWriters(ctx, base, writerOptions{logFile: sweepLogFile})
		if err != nil {
			return err
		}
		defer cleanup()

		results := make([][]sim.Result, len(sweepPayloadSizes))
		for i := range results {
			results[i] = make([]sim.Result, sweepSeeds)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(sweepParallel)
		for i, size := range sweepPayloadSizes {
			for j := 0; j < sweepSeeds; j++ {
				cfg, err := loadConfig(cmd, sweepConfigPath, sweepScenario)
				if err != nil {
					return err
				}
				cfg.PayloadSize = size
				cfg.Seed = sweepSeedBase + int64(j)
				if cmd.Flags().Changed("simulation-time") {
					cfg.SimulationTime = sweepSimulationTime
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				g.Go(func() error {
					s, err := sim.NewSimulator(cfg,
						sim.WithHandoffWriter(writer),
						sim.WithResultWriter(writer))
					if err != nil {
						return err
					}
					res, err := s.Run(gctx)
					if err != nil {
						return err
					}
					results[i][j] = res
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Payload\tRuns\tMean Mbps\tStdDev\tMin\tMax\tHandoffs")
		for i, size := range sweepPayloadSizes {
			st := summarize(size, results[i])
			fmt.Fprintf(tw, "%d\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%.1f\n",
				st.PayloadSize, st.Runs, st.Mean, st.StdDev, st.Min, st.Max, st.Handoffs)
		}
		return tw.Flush()
	},
}

func summarize(size int, runs []sim.Result) sweepStats {
	tp := make([]float64, len(runs))
	ho := make([]float64, len(runs))
	for i, r := range runs {
		tp[i] = r.ThroughputMbps
		ho[i] = float64(r.Handoffs)
	}
	st := sweepStats{PayloadSize: size, Runs: len(runs)}
	if len(runs) == 0 {
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(tp, nil)
	if len(runs) == 1 {
		st.StdDev = 0
	}
	st.Min = floats.Min(tp)
	st.Max = floats.Max(tp)
	st.Handoffs = stat.Mean(ho, nil)
	return st
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepConfigPath, "config", "", "Path to a simulation configuration YAML")
	f.StringVar(&sweepScenario, "scenario", scenario.Default, "Built-in scenario to run when no config is given")
	f.IntVar(&sweepSeeds, "seeds", 5, "Number of seeds per payload size")
	f.Int64Var(&sweepSeedBase, "seed-base", 1, "First seed; later runs use consecutive seeds")
	f.IntSliceVar(&sweepPayloadSizes, "payload-sizes", []int{2048}, "Comma separated payload sizes in bytes")
	f.Float64Var(&sweepSimulationTime, "simulation-time", 10, "Measured simulation time in seconds")
	f.IntVar(&sweepParallel, "parallel", runtime.NumCPU(), "Maximum number of concurrent runs")
	f.StringVar(&sweepLogFile, "log-file", "", "Path to export handoffs and results of every run as JSONL")
}
