package telemetry

import (
	"time"

	"wlan-handoff-sim/internal/assoc"
	"wlan-handoff-sim/internal/node"
	"wlan-handoff-sim/internal/traffic"
)

// Generator turns simulator events into rows stamped with a run ID. Wall
// clock timestamps are the run epoch plus simulated time.
type Generator struct {
	RunID string
	Epoch time.Time

	names map[int]string
}

// NewGenerator creates a row generator for one run over nodes.
func NewGenerator(runID string, epoch time.Time, nodes []*node.Node) *Generator {
	g := &Generator{RunID: runID, Epoch: epoch.UTC(), names: make(map[int]string, len(nodes))}
	for _, n := range nodes {
		g.names[n.ID] = n.Name
	}
	return g
}

// At converts simulated seconds to a wall clock timestamp.
func (g *Generator) At(simTime float64) time.Time {
	return g.Epoch.Add(time.Duration(simTime * float64(time.Second)))
}

func (g *Generator) name(id int) string {
	if id == node.None {
		return ""
	}
	return g.names[id]
}

// Handoff converts an association transition.
func (g *Generator) Handoff(tr assoc.Transition) HandoffRow {
	return HandoffRow{
		RunID:     g.RunID,
		Station:   g.name(tr.Station),
		From:      g.name(tr.From),
		To:        g.name(tr.To),
		Kind:      string(tr.Kind),
		Quality:   tr.Quality,
		SimTime:   tr.Time,
		Timestamp: g.At(tr.Time),
	}
}

// Sample captures the position of n. m is the station's association
// machine and may be nil for access points.
func (g *Generator) Sample(n *node.Node, m *assoc.Machine, now float64) SampleRow {
	row := SampleRow{
		RunID:     g.RunID,
		Node:      n.Name,
		Role:      n.Role.String(),
		X:         n.Position.X,
		Y:         n.Position.Y,
		SimTime:   now,
		Timestamp: g.At(now),
	}
	if m != nil {
		if ap, ok := m.Associated(); ok {
			row.Associated = true
			row.AP = g.name(ap)
			row.Quality = m.Quality()
		}
	}
	return row
}

// Packet converts one send attempt.
func (g *Generator) Packet(p traffic.Packet) PacketRow {
	return PacketRow{
		RunID:     g.RunID,
		FlowID:    p.FlowID,
		Seq:       p.Seq,
		Size:      p.Size,
		Delivered: p.Delivered,
		SimTime:   p.Time,
		Timestamp: g.At(p.Time),
	}
}
