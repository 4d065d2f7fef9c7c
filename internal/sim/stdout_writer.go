// Writer implementation printing rows to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/telemetry"
)

// StdoutWriter prints rows either as JSON lines or, when colorize is set,
// as coloured human-readable lines preceded by a configuration overview.
type StdoutWriter struct {
	cfg      *config.SimulationConfig
	out      io.Writer
	colorize bool
	samples  bool
	styles   styles
	once     sync.Once
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout. Position
// samples are only printed when samples is true.
func NewStdoutWriter(cfg *config.SimulationConfig, colorize, samples bool) *StdoutWriter {
	return newStdoutWriter(os.Stdout, cfg, colorize, samples)
}

func newStdoutWriter(out io.Writer, cfg *config.SimulationConfig, colorize, samples bool) *StdoutWriter {
	return &StdoutWriter{
		cfg:      cfg,
		out:      out,
		colorize: colorize,
		samples:  samples,
		styles:   newStyles(lipgloss.NewRenderer(out)),
	}
}

func (w *StdoutWriter) json(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteHandoff outputs a single transition.
func (w *StdoutWriter) WriteHandoff(row telemetry.HandoffRow) error {
	if !w.colorize {
		return w.json(row)
	}
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, w.styles.handoffLine(row))
	return err
}

// WriteHandoffs outputs multiple transitions.
func (w *StdoutWriter) WriteHandoffs(rows []telemetry.HandoffRow) error {
	for _, r := range rows {
		if err := w.WriteHandoff(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSample outputs a position sample when samples are enabled.
func (w *StdoutWriter) WriteSample(row telemetry.SampleRow) error {
	if !w.samples {
		return nil
	}
	if !w.colorize {
		return w.json(row)
	}
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, w.styles.sampleLine(row))
	return err
}

// WriteResult outputs the run summary.
func (w *StdoutWriter) WriteResult(row telemetry.ResultRow) error {
	if !w.colorize {
		return w.json(row)
	}
	w.once.Do(w.printOverview)
	_, err := fmt.Fprintln(w.out, w.styles.resultLine(row))
	return err
}
