package mobility

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"wlan-handoff-sim/internal/engine"
	"wlan-handoff-sim/internal/node"
)

func walkSpec() Spec {
	return Spec{
		Kind:     RandomWalk,
		Interval: 1,
		SpeedMin: 2,
		SpeedMax: 4,
		Bounds:   r2.Box{Min: r2.Vec{X: -50, Y: -50}, Max: r2.Vec{X: 50, Y: 50}},
	}
}

func TestRandomWalkStaysInBounds(t *testing.T) {
	q := engine.New()
	m := &Model{}
	spec := walkSpec()
	spec.SpeedMin, spec.SpeedMax = 30, 40
	n := &node.Node{ID: 1}
	m.Install(q, n, spec, rand.New(rand.NewSource(7)), 0)

	var moves int
	m.OnMove = func(mv *node.Node, now float64) {
		moves++
		assert.GreaterOrEqual(t, mv.Position.X, -50.0)
		assert.LessOrEqual(t, mv.Position.X, 50.0)
		assert.GreaterOrEqual(t, mv.Position.Y, -50.0)
		assert.LessOrEqual(t, mv.Position.Y, 50.0)
	}
	q.RunUntil(200)
	assert.Equal(t, 200, moves)
	assert.Greater(t, m.States()[0].Redraws, 1, "bounds should force new directions")
}

func TestRandomWalkSpeedWithinRange(t *testing.T) {
	q := engine.New()
	m := &Model{}
	spec := walkSpec()
	spec.MaxSegment = 1
	st := m.Install(q, &node.Node{}, spec, rand.New(rand.NewSource(3)), 0)
	for i := 0; i < 50; i++ {
		q.RunUntil(float64(i))
		speed := r2.Norm(st.Velocity)
		assert.InDelta(t, 3, speed, 1.0000001)
	}
}

func TestRandomWalkDeterministic(t *testing.T) {
	run := func() []r2.Vec {
		q := engine.New()
		m := &Model{}
		var path []r2.Vec
		m.OnMove = func(n *node.Node, _ float64) { path = append(path, n.Position) }
		m.Install(q, &node.Node{}, walkSpec(), rand.New(rand.NewSource(42)), 0)
		q.RunUntil(30)
		return path
	}
	assert.Equal(t, run(), run())
}

func TestMaxSegmentForcesRedraw(t *testing.T) {
	q := engine.New()
	m := &Model{}
	spec := walkSpec()
	spec.SpeedMin, spec.SpeedMax = 0.1, 0.1
	spec.MaxSegment = 2
	st := m.Install(q, &node.Node{}, spec, rand.New(rand.NewSource(1)), 0)
	q.RunUntil(10)
	// initial draw plus one every two seconds
	assert.Equal(t, 6, st.Redraws)
}

func TestConstantVelocity(t *testing.T) {
	q := engine.New()
	m := &Model{}
	n := &node.Node{Position: r2.Vec{X: -10}}
	m.Install(q, n, Spec{Kind: ConstantVelocity, Interval: 0.5, Velocity: r2.Vec{X: 10}}, nil, 0)
	q.RunUntil(7)
	assert.InDelta(t, 60, n.Position.X, 1e-9)
	assert.Equal(t, 0.0, n.Position.Y)
}

func TestStaticNodeNeverTicks(t *testing.T) {
	q := engine.New()
	m := &Model{}
	n := &node.Node{Position: r2.Vec{X: 5, Y: 5}}
	m.Install(q, n, Spec{Kind: Static}, nil, 0)
	assert.Equal(t, 0, q.Pending())
	q.RunUntil(100)
	assert.Equal(t, r2.Vec{X: 5, Y: 5}, n.Position)
}

func TestSpecValidate(t *testing.T) {
	require.NoError(t, walkSpec().Validate())
	require.NoError(t, Spec{Kind: Static}.Validate())

	bad := walkSpec()
	bad.SpeedMax = 1
	assert.Error(t, bad.Validate())

	bad = walkSpec()
	bad.Interval = 0
	assert.Error(t, bad.Validate())

	bad = walkSpec()
	bad.Bounds = r2.Box{}
	assert.Error(t, bad.Validate())

	bad = walkSpec()
	bad.Bounds.Max.Y = bad.Bounds.Min.Y
	assert.Error(t, bad.Validate())

	assert.Error(t, Spec{Kind: "teleport", Interval: 1}.Validate())
}
