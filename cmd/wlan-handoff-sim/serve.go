package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"wlan-handoff-sim/internal/admin"
)

var (
	serveAddr     string
	serveParallel int
	serveLogFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP run API",
	Long:  "serve starts an HTTP API to launch simulations of the built-in scenarios and fetch their results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		writer, cleanup, err := newWriters(ctx, nil, writerOptions{logFile: serveLogFile})
		if err != nil {
			return err
		}
		defer cleanup()

		var sink any
		if !writer.Empty() {
			sink = writer
		}
		srv := admin.NewServer(ctx, serveParallel, sink)
		if err := srv.ListenAndServe(ctx, serveAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().IntVar(&serveParallel, "parallel", runtime.NumCPU(), "Maximum number of concurrent runs")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Path to export handoffs and results of every run as JSONL")
}
