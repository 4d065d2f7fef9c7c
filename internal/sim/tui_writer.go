package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// handoffMsg carries a rendered transition and the row behind it.
type handoffMsg struct {
	line string
	row  telemetry.HandoffRow
}

// sampleMsg updates one row of the station table.
type sampleMsg struct{ telemetry.SampleRow }

// resultMsg carries the final result of the run.
type resultMsg struct{ telemetry.ResultRow }

const maxLogLines = 5000

// TUIWriter renders handoffs and station state using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	styles     styles
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
// Quitting the TUI before the run ends interrupts the process.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{styles: newStyles(lipgloss.DefaultRenderer()), done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg, w.styles), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteHandoff implements HandoffWriter.
func (w *TUIWriter) WriteHandoff(row telemetry.HandoffRow) error {
	w.program.Send(handoffMsg{line: w.styles.handoffLine(row), row: row})
	return nil
}

// WriteHandoffs outputs multiple transitions.
func (w *TUIWriter) WriteHandoffs(rows []telemetry.HandoffRow) error {
	for _, r := range rows {
		_ = w.WriteHandoff(r)
	}
	return nil
}

// WriteSample implements SampleWriter. Only station samples are shown.
func (w *TUIWriter) WriteSample(row telemetry.SampleRow) error {
	if row.Role != "station" {
		return nil
	}
	w.program.Send(sampleMsg{row})
	return nil
}

// WriteSamples outputs multiple samples.
func (w *TUIWriter) WriteSamples(rows []telemetry.SampleRow) error {
	for _, r := range rows {
		_ = w.WriteSample(r)
	}
	return nil
}

// WriteResult implements ResultWriter.
func (w *TUIWriter) WriteResult(row telemetry.ResultRow) error {
	w.program.Send(resultMsg{row})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	cfg        *config.SimulationConfig
	styles     styles
	table      table.Model
	vp         viewport.Model
	logs       []string
	stations   map[string]telemetry.SampleRow
	order      []string
	handoffs   map[string]int
	result     *telemetry.ResultRow
	simTime    float64
	wrap       bool
	autoscroll bool
	help       bool
	header     string
	height     int
}

func newTUIModel(cfg *config.SimulationConfig, st styles) tuiModel {
	cols := []table.Column{
		{Title: "Station", Width: 12},
		{Title: "AP", Width: 12},
		{Title: "Quality", Width: 8},
		{Title: "X", Width: 9},
		{Title: "Y", Width: 9},
		{Title: "Handoffs", Width: 8},
	}
	m := tuiModel{
		cfg:        cfg,
		styles:     st,
		vp:         viewport.New(0, 0),
		stations:   make(map[string]telemetry.SampleRow),
		handoffs:   make(map[string]int),
		autoscroll: true,
	}
	if cfg != nil {
		for _, n := range cfg.Stations {
			m.order = append(m.order, n.Name)
		}
	}
	m.table = table.New(table.WithColumns(cols), table.WithRows(m.stationRows()), table.WithHeight(len(m.order)+1))
	return m
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			case "q", "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s", "a":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "?", "h":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case handoffMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		if msg.row.Kind == telemetry.KindHandoff {
			m.handoffs[msg.row.Station]++
		}
		m.advance(msg.row.SimTime)
		m.refreshViewport()
		m.refreshTable()
	case sampleMsg:
		if _, ok := m.stations[msg.Node]; !ok && !m.known(msg.Node) {
			m.order = append(m.order, msg.Node)
		}
		m.stations[msg.Node] = msg.SampleRow
		m.advance(msg.SimTime)
		m.refreshTable()
	case resultMsg:
		r := msg.ResultRow
		m.result = &r
		m.logs = append(m.logs, m.styles.resultLine(r))
		m.refreshViewport()
	}
	return m, nil
}

func (m *tuiModel) advance(t float64) {
	if t > m.simTime {
		m.simTime = t
	}
}

func (m tuiModel) known(name string) bool {
	for _, n := range m.order {
		if n == name {
			return true
		}
	}
	return false
}

func (m tuiModel) stationRows() []table.Row {
	rows := make([]table.Row, 0, len(m.order))
	for _, name := range m.order {
		s, ok := m.stations[name]
		row := table.Row{name, "-", "-", "-", "-", fmt.Sprintf("%d", m.handoffs[name])}
		if ok {
			row[3] = fmt.Sprintf("%.2f", s.X)
			row[4] = fmt.Sprintf("%.2f", s.Y)
			if s.Associated {
				row[1] = s.AP
				row[2] = fmt.Sprintf("%.3f", s.Quality)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *tuiModel) refreshTable() {
	m.table.SetRows(m.stationRows())
	m.table.SetHeight(len(m.order) + 1)
	m.header = m.renderHeader()
	m.updateViewportHeight()
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - lipgloss.Height(m.header) - lipgloss.Height(m.renderBottom()) - 2
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, len(m.logs))
		for i, l := range m.logs {
			lines[i] = wordwrap.String(l, m.vp.Width)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	return m.table.View()
}

// renderSummary totals the association state across stations.
func (m tuiModel) renderSummary() string {
	associated := 0
	for _, s := range m.stations {
		if s.Associated {
			associated++
		}
	}
	total := 0
	for _, n := range m.handoffs {
		total += n
	}
	summary := fmt.Sprintf("%s t=%.2fs associated=%d/%d handoffs=%d",
		m.styles.result.Render("SUMMARY"), m.simTime, associated, len(m.order), total)
	if m.result != nil {
		summary += " " + m.styles.result.Render(fmt.Sprintf("throughput=%.2f Mbps", m.result.ThroughputMbps))
	}
	return summary
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	name := ""
	if m.cfg != nil {
		name = m.cfg.Name
	}
	line := fmt.Sprintf("%s | Wrap %s | Scroll %s | ? help | q quit", name, indicator(m.wrap), indicator(m.autoscroll))
	return m.renderSummary() + "\n" + line
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle line wrap",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
