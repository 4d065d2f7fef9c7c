// Package mobility moves nodes over simulated time. Each mobile node gets a
// recurring tick event; positions only change inside those events.
package mobility

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"wlan-handoff-sim/internal/engine"
	"wlan-handoff-sim/internal/node"
)

// Kind selects a movement pattern.
type Kind string

const (
	Static           Kind = "static"
	RandomWalk       Kind = "random_walk"
	ConstantVelocity Kind = "constant_velocity"
)

// Spec configures the movement of one node.
type Spec struct {
	Kind     Kind
	Interval float64 // seconds between ticks
	SpeedMin float64
	SpeedMax float64
	// MaxSegment forces a new direction after this many seconds; 0 keeps the
	// current vector until a bound is reached.
	MaxSegment float64
	Bounds     r2.Box
	Velocity   r2.Vec // ConstantVelocity only
}

// Validate checks the spec for values the model cannot run with.
func (s Spec) Validate() error {
	switch s.Kind {
	case Static:
		return nil
	case RandomWalk:
		if s.SpeedMin < 0 || s.SpeedMax < s.SpeedMin {
			return fmt.Errorf("speed range [%g, %g] is invalid", s.SpeedMin, s.SpeedMax)
		}
		if !(s.Bounds.Max.X > s.Bounds.Min.X && s.Bounds.Max.Y > s.Bounds.Min.Y) {
			return fmt.Errorf("bounds %v enclose no area", s.Bounds)
		}
		if s.MaxSegment < 0 {
			return fmt.Errorf("max segment %g is negative", s.MaxSegment)
		}
	case ConstantVelocity:
	default:
		return fmt.Errorf("unknown mobility kind %q", s.Kind)
	}
	if !(s.Interval > 0) {
		return fmt.Errorf("tick interval %g must be positive", s.Interval)
	}
	return nil
}

// State is the movement state of a single node.
type State struct {
	NodeID   int
	Velocity r2.Vec
	Bounds   r2.Box
	// Redraws counts direction/speed draws, the initial one included.
	Redraws int

	spec         Spec
	node         *node.Node
	rng          *rand.Rand
	ticks        int
	start        float64
	lastTick     float64
	segmentStart float64
}

// Model tracks every installed node and reports moves through OnMove.
type Model struct {
	OnMove func(n *node.Node, now float64)
	states []*State
}

// States returns the installed movement states in install order.
func (m *Model) States() []*State { return m.states }

// Install attaches spec to n and schedules its first tick one interval after
// start. Static nodes are recorded but never ticked.
func (m *Model) Install(q *engine.Queue, n *node.Node, spec Spec, rng *rand.Rand, start float64) *State {
	st := &State{
		NodeID:       n.ID,
		Bounds:       spec.Bounds,
		spec:         spec,
		node:         n,
		rng:          rng,
		start:        start,
		lastTick:     start,
		segmentStart: start,
	}
	m.states = append(m.states, st)

	switch spec.Kind {
	case Static:
		return st
	case RandomWalk:
		n.Position, _ = clamp(n.Position, spec.Bounds)
		st.redraw(start)
	case ConstantVelocity:
		st.Velocity = spec.Velocity
	}
	st.scheduleNext(q, m)
	return st
}

func (st *State) scheduleNext(q *engine.Queue, m *Model) {
	st.ticks++
	at := st.start + float64(st.ticks)*st.spec.Interval
	q.MustSchedule(at, func() { st.tick(q, m) })
}

func (st *State) tick(q *engine.Queue, m *Model) {
	now := q.Now()
	elapsed := now - st.lastTick
	st.lastTick = now

	pos := r2.Add(st.node.Position, r2.Scale(elapsed, st.Velocity))
	if st.spec.Kind == RandomWalk {
		var atBound bool
		pos, atBound = clamp(pos, st.Bounds)
		segmentDone := st.spec.MaxSegment > 0 && now-st.segmentStart >= st.spec.MaxSegment
		if atBound || segmentDone {
			st.redraw(now)
		}
	}
	st.node.Position = pos

	if m.OnMove != nil {
		m.OnMove(st.node, now)
	}
	st.scheduleNext(q, m)
}

// redraw picks a uniform direction and a uniform speed within the range.
func (st *State) redraw(now float64) {
	angle := st.rng.Float64() * 2 * math.Pi
	speed := st.spec.SpeedMin + st.rng.Float64()*(st.spec.SpeedMax-st.spec.SpeedMin)
	st.Velocity = r2.Vec{X: speed * math.Cos(angle), Y: speed * math.Sin(angle)}
	st.segmentStart = now
	st.Redraws++
}

// clamp limits p to box and reports whether the result lies on its edge.
func clamp(p r2.Vec, box r2.Box) (r2.Vec, bool) {
	p.X = math.Min(math.Max(p.X, box.Min.X), box.Max.X)
	p.Y = math.Min(math.Max(p.Y, box.Min.Y), box.Max.Y)
	onEdge := p.X == box.Min.X || p.X == box.Max.X || p.Y == box.Min.Y || p.Y == box.Max.Y
	return p, onEdge
}
