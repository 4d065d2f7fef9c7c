package sim

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"wlan-handoff-sim/internal/telemetry"
)

// styles holds the lipgloss styles shared by the colour and TUI writers.
type styles struct {
	time       lipgloss.Style
	station    lipgloss.Style
	ap         lipgloss.Style
	associate  lipgloss.Style
	handoff    lipgloss.Style
	disconnect lipgloss.Style
	dim        lipgloss.Style
	result     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		time:       r.NewStyle().Foreground(lipgloss.Color("8")),
		station:    r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		ap:         r.NewStyle().Foreground(lipgloss.Color("6")),
		associate:  r.NewStyle().Foreground(lipgloss.Color("2")),
		handoff:    r.NewStyle().Foreground(lipgloss.Color("3")),
		disconnect: r.NewStyle().Foreground(lipgloss.Color("1")),
		dim:        r.NewStyle().Foreground(lipgloss.Color("8")),
		result:     r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
	}
}

func (s styles) kind(k string) lipgloss.Style {
	switch k {
	case telemetry.KindAssociate:
		return s.associate
	case telemetry.KindHandoff:
		return s.handoff
	default:
		return s.disconnect
	}
}

func orNone(name string) string {
	if name == "" {
		return "none"
	}
	return name
}

func (s styles) handoffLine(row telemetry.HandoffRow) string {
	return fmt.Sprintf("%s %s %s %s -> %s %s",
		s.time.Render(fmt.Sprintf("[t=%8.4f]", row.SimTime)),
		s.station.Render(row.Station),
		s.kind(row.Kind).Render(strings.ToUpper(row.Kind)),
		s.ap.Render(orNone(row.From)),
		s.ap.Render(orNone(row.To)),
		s.dim.Render(fmt.Sprintf("q=%.3f", row.Quality)),
	)
}

func (s styles) sampleLine(row telemetry.SampleRow) string {
	link := s.disconnect.Render("unassociated")
	if row.Associated {
		link = s.ap.Render(row.AP) + s.dim.Render(fmt.Sprintf(" q=%.3f", row.Quality))
	}
	return fmt.Sprintf("%s %s pos=(%.2f,%.2f) %s",
		s.time.Render(fmt.Sprintf("[t=%8.4f]", row.SimTime)),
		s.station.Render(row.Node),
		row.X, row.Y, link)
}

func (s styles) resultLine(row telemetry.ResultRow) string {
	return fmt.Sprintf("%s %s generated=%d delivered=%d handoffs=%d %s",
		s.time.Render(row.Timestamp.Format(time.RFC3339)),
		s.result.Render("RESULT"),
		row.Generated, row.Delivered, row.Handoffs,
		s.result.Render(fmt.Sprintf("throughput=%.2f Mbps", row.ThroughputMbps)),
	)
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	c := w.cfg
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Scenario:\t%s\n", c.Name)
	fmt.Fprintf(tw, "Seed:\t%d\n", c.Seed)
	fmt.Fprintf(tw, "Payload Size:\t%d\n", c.PayloadSize)
	fmt.Fprintf(tw, "Simulation Time (s):\t%g\n", c.SimulationTime)
	fmt.Fprintf(tw, "Warm-up (s):\t%g\n", c.WarmupTime())
	fmt.Fprintf(tw, "Propagation:\t%s\n", c.Propagation.Model)
	fmt.Fprintf(tw, "Check Interval (s):\t%g\n", c.Association.CheckInterval)
	fmt.Fprintf(tw, "Flow:\t%s -> %s port %d every %gs\n", c.Flow.Source, c.Flow.Destination, c.Flow.Port, c.Flow.Interval)
	tw.Flush()

	fmt.Fprintln(w.out, "\nNodes:")
	tw = tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\tRole\tMobility\n")
	for _, n := range c.AccessPoints {
		fmt.Fprintf(tw, "%s\taccess_point\t%s\n", w.styles.ap.Render(n.Name), c.NodeMobility(n).Kind)
	}
	for _, n := range c.Stations {
		fmt.Fprintf(tw, "%s\tstation\t%s\n", w.styles.station.Render(n.Name), c.NodeMobility(n).Kind)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}
