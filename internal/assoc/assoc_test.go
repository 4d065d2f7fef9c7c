package assoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"wlan-handoff-sim/internal/engine"
	"wlan-handoff-sim/internal/node"
	"wlan-handoff-sim/internal/radio"
)

// range 100, associate within 60, drop beyond 70
func testPolicy() Policy {
	return Policy{
		AssociationThreshold:    0.4,
		DisassociationThreshold: 0.3,
		Hysteresis:              0.05,
		CheckInterval:           0.1,
	}
}

func setup(stationX float64, apXs ...float64) (*node.Node, []*node.Node) {
	sta := &node.Node{ID: 0, Role: node.Station, Position: r2.Vec{X: stationX}}
	var aps []*node.Node
	for i, x := range apXs {
		aps = append(aps, &node.Node{ID: 10 + i, Role: node.AccessPoint, Position: r2.Vec{X: x}})
	}
	return sta, aps
}

func TestStartsUnassociated(t *testing.T) {
	sta, aps := setup(10, 0)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	_, ok := m.Associated()
	assert.False(t, ok)
	assert.Equal(t, -1.0, m.LastEvaluation())
}

func TestStationaryAssociatesOnFirstCheckAndNeverFlaps(t *testing.T) {
	sta, aps := setup(10, 0, 100)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	var trs []Transition
	m.OnTransition = func(tr Transition) { trs = append(trs, tr) }

	q := engine.New()
	m.Install(q, 0)
	q.RunUntil(0.1)
	ap, ok := m.Associated()
	require.True(t, ok)
	assert.Equal(t, 10, ap)

	q.RunUntil(20)
	require.Len(t, trs, 1)
	assert.Equal(t, Associate, trs[0].Kind)
	assert.Equal(t, node.None, trs[0].From)
	assert.Equal(t, 10, trs[0].To)
	assert.InDelta(t, 0.9, trs[0].Quality, 1e-12)
	assert.InDelta(t, 0.9, m.Quality(), 1e-12)
}

func TestOutOfRangeStaysUnassociated(t *testing.T) {
	sta, aps := setup(65, 0)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	assert.False(t, m.Evaluate(0))
	_, ok := m.Associated()
	assert.False(t, ok)
}

func TestHysteresisPreventsFlapping(t *testing.T) {
	sta, aps := setup(48, 0, 100)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	require.True(t, m.Evaluate(0))
	ap, _ := m.Associated()
	require.Equal(t, 10, ap)

	// 0.48 vs 0.52: the other AP is better, but not by more than 0.05
	sta.Position.X = 52
	assert.False(t, m.Evaluate(1))
	ap, _ = m.Associated()
	assert.Equal(t, 10, ap)

	// 0.45 vs 0.55 crosses the margin
	sta.Position.X = 55
	assert.True(t, m.Evaluate(2))
	ap, _ = m.Associated()
	assert.Equal(t, 11, ap)
}

func TestHandoffTransitionRecorded(t *testing.T) {
	sta, aps := setup(20, 0, 100)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	var trs []Transition
	m.OnTransition = func(tr Transition) { trs = append(trs, tr) }
	m.Evaluate(0)
	sta.Position.X = 80
	m.Evaluate(1)
	require.Len(t, trs, 2)
	assert.Equal(t, Handoff, trs[1].Kind)
	assert.Equal(t, 10, trs[1].From)
	assert.Equal(t, 11, trs[1].To)
	assert.Equal(t, 1.0, trs[1].Time)
}

func TestDisassociateBelowThreshold(t *testing.T) {
	sta, aps := setup(50, 0)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	var trs []Transition
	m.OnTransition = func(tr Transition) { trs = append(trs, tr) }
	require.True(t, m.Evaluate(0))

	// between the two thresholds the association is kept
	sta.Position.X = 65
	assert.False(t, m.Evaluate(1))
	_, ok := m.Associated()
	assert.True(t, ok)

	sta.Position.X = 75
	assert.True(t, m.Evaluate(2))
	_, ok = m.Associated()
	assert.False(t, ok)
	require.Len(t, trs, 2)
	assert.Equal(t, Disassociate, trs[1].Kind)
	assert.Equal(t, node.None, trs[1].To)
}

func TestWeakBetterCandidateDropsAssociation(t *testing.T) {
	sta, aps := setup(0, 0, 140)
	m := New(sta, aps, radio.RangeModel{Range: 100}, Policy{
		AssociationThreshold:    0.5,
		DisassociationThreshold: 0.1,
		Hysteresis:              0,
		CheckInterval:           1,
	})
	var trs []Transition
	m.OnTransition = func(tr Transition) { trs = append(trs, tr) }
	require.True(t, m.Evaluate(0))

	// AP 11 now better (0.4 vs 0.2) but below the association threshold
	sta.Position.X = 80
	assert.True(t, m.Evaluate(1))
	_, ok := m.Associated()
	assert.False(t, ok)
	require.Len(t, trs, 2)
	assert.Equal(t, Disassociate, trs[1].Kind)
	assert.Equal(t, 10, trs[1].From)
	assert.Equal(t, node.None, trs[1].To)
	assert.InDelta(t, 0.2, trs[1].Quality, 1e-12)
}

func TestCurrentAboveDisassociationButBetterWeakCandidate(t *testing.T) {
	sta, aps := setup(0, 0, 131)
	m := New(sta, aps, radio.RangeModel{Range: 100}, testPolicy())
	var trs []Transition
	m.OnTransition = func(tr Transition) { trs = append(trs, tr) }
	require.True(t, m.Evaluate(0))

	// ap 10 at 69 (0.31, above 0.3), ap 11 at 62 (0.38, below 0.4)
	sta.Position.X = 69
	assert.True(t, m.Evaluate(1))
	_, ok := m.Associated()
	assert.False(t, ok)
	require.Len(t, trs, 2)
	assert.Equal(t, Disassociate, trs[1].Kind)
}

func TestTiePrefersLowestID(t *testing.T) {
	sta, aps := setup(50, 0, 100)
	m := New(sta, aps, radio.RangeModel{Range: 100}, Policy{
		AssociationThreshold: 0.4, DisassociationThreshold: 0.3, CheckInterval: 1,
	})
	require.True(t, m.Evaluate(0))
	ap, _ := m.Associated()
	assert.Equal(t, 10, ap)
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, testPolicy().Validate())

	p := testPolicy()
	p.CheckInterval = 0
	assert.Error(t, p.Validate())

	p = testPolicy()
	p.DisassociationThreshold = 0.5
	assert.Error(t, p.Validate())

	p = testPolicy()
	p.Hysteresis = -1
	assert.Error(t, p.Validate())
}
