// Package assoc implements the per-station association and handoff state
// machine. A station is either unassociated or associated with exactly one
// access point; the decision is re-evaluated on a fixed check interval.
package assoc

import (
	"fmt"

	"wlan-handoff-sim/internal/engine"
	"wlan-handoff-sim/internal/node"
	"wlan-handoff-sim/internal/radio"
)

// Policy holds the tunable thresholds of the state machine.
type Policy struct {
	AssociationThreshold    float64
	DisassociationThreshold float64
	Hysteresis              float64
	CheckInterval           float64
}

// Validate rejects policies the state machine cannot honour.
func (p Policy) Validate() error {
	if !(p.CheckInterval > 0) {
		return fmt.Errorf("check interval %g must be positive", p.CheckInterval)
	}
	if p.Hysteresis < 0 {
		return fmt.Errorf("hysteresis %g must not be negative", p.Hysteresis)
	}
	if p.AssociationThreshold < p.DisassociationThreshold {
		return fmt.Errorf("association threshold %g is below disassociation threshold %g",
			p.AssociationThreshold, p.DisassociationThreshold)
	}
	if p.AssociationThreshold <= 0 || p.AssociationThreshold > 1 {
		return fmt.Errorf("association threshold %g must be in (0, 1]", p.AssociationThreshold)
	}
	return nil
}

// TransitionKind classifies a change of association.
type TransitionKind string

const (
	Associate    TransitionKind = "associate"
	Handoff      TransitionKind = "handoff"
	Disassociate TransitionKind = "disassociate"
)

// Transition records one change of a station's attachment.
type Transition struct {
	Time    float64
	Station int
	From    int // node.None when previously unassociated
	To      int // node.None when the station lost its association
	Kind    TransitionKind
	Quality float64 // quality of To, or of From on disassociation
}

// Machine is the association state of one station.
type Machine struct {
	OnTransition func(Transition)

	policy   Policy
	model    radio.Model
	station  *node.Node
	aps      []*node.Node
	current  int // index into aps, -1 when unassociated
	lastEval float64
	checks   int
	quality  []float64
}

// New returns an unassociated machine for station choosing among aps.
func New(station *node.Node, aps []*node.Node, model radio.Model, policy Policy) *Machine {
	return &Machine{
		policy:   policy,
		model:    model,
		station:  station,
		aps:      aps,
		current:  -1,
		lastEval: -1,
		quality:  make([]float64, len(aps)),
	}
}

// Station returns the node this machine belongs to.
func (m *Machine) Station() *node.Node { return m.station }

// Associated returns the ID of the current access point.
func (m *Machine) Associated() (int, bool) {
	if m.current < 0 {
		return node.None, false
	}
	return m.aps[m.current].ID, true
}

// LastEvaluation returns the time of the most recent check, or -1.
func (m *Machine) LastEvaluation() float64 { return m.lastEval }

// Quality returns the link quality to the current access point as of the
// last check, or 0 when unassociated.
func (m *Machine) Quality() float64 {
	if m.current < 0 {
		return 0
	}
	return m.quality[m.current]
}

// Install runs the first check at start and then every CheckInterval.
func (m *Machine) Install(q *engine.Queue, start float64) {
	q.MustSchedule(start, func() { m.check(q, start) })
}

func (m *Machine) check(q *engine.Queue, start float64) {
	m.Evaluate(q.Now())
	m.checks++
	q.MustSchedule(start+float64(m.checks)*m.policy.CheckInterval, func() { m.check(q, start) })
}

// Evaluate applies one round of the association rules at time now and
// reports whether the attachment changed.
func (m *Machine) Evaluate(now float64) bool {
	m.lastEval = now
	best := -1
	for i, ap := range m.aps {
		m.quality[i] = m.model.Quality(node.Distance(m.station, ap))
		if best < 0 || m.quality[i] > m.quality[best] {
			best = i
		}
	}

	if m.current >= 0 {
		cur := m.quality[m.current]
		if cur >= m.policy.DisassociationThreshold && !m.betterCandidate(cur) {
			return false
		}
		// Prefer staying on the current AP when it ties with the best.
		if best >= 0 && m.quality[best] == cur {
			best = m.current
		}
	}

	from := m.current
	if best >= 0 && m.quality[best] >= m.policy.AssociationThreshold {
		if best == from {
			return false
		}
		m.current = best
		kind := Handoff
		if from < 0 {
			kind = Associate
		}
		m.emit(now, from, best, kind, m.quality[best])
		return true
	}
	m.current = -1
	if from >= 0 {
		m.emit(now, from, -1, Disassociate, m.quality[from])
		return true
	}
	return false
}

func (m *Machine) betterCandidate(cur float64) bool {
	for i, q := range m.quality {
		if i != m.current && q > cur+m.policy.Hysteresis {
			return true
		}
	}
	return false
}

func (m *Machine) emit(now float64, from, to int, kind TransitionKind, quality float64) {
	if m.OnTransition == nil {
		return
	}
	tr := Transition{Time: now, Station: m.station.ID, From: node.None, To: node.None, Kind: kind, Quality: quality}
	if from >= 0 {
		tr.From = m.aps[from].ID
	}
	if to >= 0 {
		tr.To = m.aps[to].ID
	}
	m.OnTransition(tr)
}
