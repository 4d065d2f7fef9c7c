package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wlan-handoff-sim/internal/assoc"
	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/node"
	"wlan-handoff-sim/internal/scenario"
	"wlan-handoff-sim/internal/telemetry"
)

func lookup(t *testing.T, name string) *config.SimulationConfig {
	t.Helper()
	cfg, err := scenario.Lookup(name)
	require.NoError(t, err)
	return cfg
}

func run(t *testing.T, cfg *config.SimulationConfig, opts ...Option) (*Simulator, Result) {
	t.Helper()
	s, err := NewSimulator(cfg, opts...)
	require.NoError(t, err)
	res, err := s.Run(context.Background())
	require.NoError(t, err)
	return s, res
}

func TestThroughput(t *testing.T) {
	assert.InDelta(t, 819.2, Throughput(500000, 2048, 10), 1e-9)
	assert.Equal(t, 0.0, Throughput(0, 2048, 10))
}

func TestStationaryStationSaturatesLink(t *testing.T) {
	s, res := run(t, lookup(t, "fixed-pair"))

	assert.InDelta(t, 500000, float64(res.PacketsDelivered), 1)
	assert.Equal(t, res.PacketsGenerated, res.PacketsDelivered)
	assert.InDelta(t, 819.2, res.ThroughputMbps, 0.01)
	assert.Equal(t, res.PacketsDelivered*2048, res.BytesReceived)

	trs := s.Transitions()
	require.Len(t, trs, 1, "stationary station must not flap")
	assert.Equal(t, assoc.Associate, trs[0].Kind)
	assert.Equal(t, 0.0, trs[0].Time)
	ap0, _ := s.Node("ap-0")
	assert.Equal(t, ap0.ID, trs[0].To)
}

func TestStationLeavingRangeLosesTraffic(t *testing.T) {
	s, res := run(t, lookup(t, "corridor"))

	require.NotZero(t, res.PacketsGenerated)
	frac := float64(res.PacketsDelivered) / float64(res.PacketsGenerated)
	assert.InDelta(t, 0.7, frac, 0.03)
	assert.InDelta(t, 0.7*819.2, res.ThroughputMbps, 0.03*819.2)
	assert.Equal(t, 1, res.Associations)
	assert.Equal(t, 1, res.Disassociations)

	trs := s.Transitions()
	require.Len(t, trs, 2)
	last := trs[1]
	assert.Equal(t, assoc.Disassociate, last.Kind)
	assert.Equal(t, node.None, last.To)
	// 70 units is crossed at t=8; the next check must notice within one interval.
	assert.Greater(t, last.Time, 8.0)
	assert.LessOrEqual(t, last.Time, 8.0+2*config.DefaultCheckInterval)
}

func TestRandomWalkOutOfRangeLosesTraffic(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		cfg := lookup(t, "corridor")
		cfg.Seed = seed
		cfg.SimulationTime = 3
		// Every first step lands 100 units from the access point, past its range.
		cfg.Stations[0].Position = &config.Point{}
		cfg.Stations[0].Mobility = &config.Mobility{
			Kind:     "random_walk",
			Interval: 1,
			SpeedMin: 100,
			SpeedMax: 100,
			Bounds:   config.Bounds{MinX: -200, MinY: -200, MaxX: 200, MaxY: 200},
		}
		s, res := run(t, cfg)

		assert.NotZero(t, res.PacketsDelivered, "seed %d", seed)
		assert.Less(t, res.PacketsDelivered, res.PacketsGenerated, "seed %d", seed)
		assert.GreaterOrEqual(t, res.Disassociations, 1, "seed %d", seed)

		trs := s.Transitions()
		require.GreaterOrEqual(t, len(trs), 2, "seed %d", seed)
		assert.Equal(t, assoc.Associate, trs[0].Kind)
		assert.Equal(t, assoc.Disassociate, trs[1].Kind)
		assert.Greater(t, trs[1].Time, 1.0)
		assert.LessOrEqual(t, trs[1].Time, 1.0+config.DefaultCheckInterval)
	}
}

func TestNeverAssociatedDeliversNothing(t *testing.T) {
	cfg := lookup(t, "fixed-pair")
	cfg.Stations[0].Position = &config.Point{X: 500}
	s, res := run(t, cfg)

	assert.NotZero(t, res.PacketsGenerated)
	assert.Zero(t, res.PacketsDelivered)
	assert.Zero(t, res.ThroughputMbps)
	assert.Empty(t, s.Transitions())
}

func TestRunsAreDeterministic(t *testing.T) {
	for _, seed := range []int64{1, 7, 42} {
		cfg := func() *config.SimulationConfig {
			c := lookup(t, "public-wifi")
			c.Seed = seed
			c.SimulationTime = 4
			return c
		}
		a, resA := run(t, cfg(), WithRunID("same"))
		b, resB := run(t, cfg(), WithRunID("same"))

		assert.Equal(t, resA, resB, "seed %d", seed)
		assert.Equal(t, a.Transitions(), b.Transitions(), "seed %d", seed)
		assert.LessOrEqual(t, resA.PacketsDelivered, resA.PacketsGenerated)
		for i, n := range a.Nodes() {
			assert.Equal(t, n.Position, b.Nodes()[i].Position)
		}
	}
}

func TestPublicWifiLayout(t *testing.T) {
	s, err := NewSimulator(lookup(t, "public-wifi"))
	require.NoError(t, err)

	nodes := s.Nodes()
	require.Len(t, nodes, 12)
	sta0, _ := s.Node("sta-0")
	sta1, _ := s.Node("sta-1")
	ap0, _ := s.Node("ap-0")
	ap1, _ := s.Node("ap-1")
	assert.Equal(t, 0, sta0.ID)
	assert.Equal(t, "192.168.1.1", sta0.IP.String())
	assert.Equal(t, "192.168.1.3", ap0.IP.String())
	assert.Equal(t, 0.0, ap0.Position.X)
	assert.Equal(t, 50.0, ap1.Position.X)
	assert.Equal(t, 0.0, sta0.Position.X)
	assert.Equal(t, 50.0, sta1.Position.X)

	src, dst := s.FlowEndpoints()
	assert.Equal(t, ap0, src)
	assert.Equal(t, sta0, dst)
}

func TestRunCancelled(t *testing.T) {
	s, err := NewSimulator(lookup(t, "fixed-pair"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunTwice(t *testing.T) {
	cfg := lookup(t, "fixed-pair")
	cfg.SimulationTime = 0.5
	s, _ := run(t, cfg)
	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := lookup(t, "fixed-pair")
	cfg.PayloadSize = 0
	_, err := NewSimulator(cfg)
	assert.True(t, errors.Is(err, config.ErrInvalidConfiguration), "got %v", err)
}

type packetCounter struct{ rows []telemetry.PacketRow }

func (p *packetCounter) WritePacket(r telemetry.PacketRow) error {
	p.rows = append(p.rows, r)
	return nil
}

func TestWritersReceiveRows(t *testing.T) {
	epoch := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := lookup(t, "corridor")
	cw := &collectWriter{}
	pc := &packetCounter{}
	cfg.Flow.MaxPackets = 10

	_, res := run(t, cfg, WithRunID("run-x"), WithClock(func() time.Time { return epoch }), WithWriter(cw), WithPacketWriter(pc))

	require.Len(t, cw.handoffs, 2)
	assert.Equal(t, "run-x", cw.handoffs[0].RunID)
	assert.Equal(t, telemetry.KindAssociate, cw.handoffs[0].Kind)
	assert.Equal(t, "ap-0", cw.handoffs[0].To)
	assert.Equal(t, epoch, cw.handoffs[0].Timestamp)
	assert.Equal(t, telemetry.KindDisassociate, cw.handoffs[1].Kind)

	// the moving station is sampled every 0.1 s for 11 s
	assert.InDelta(t, 110, len(cw.samples), 1)
	assert.Equal(t, "sta-0", cw.samples[0].Node)
	assert.True(t, cw.samples[0].Associated)

	require.Len(t, cw.results, 1)
	assert.Equal(t, res.PacketsDelivered, cw.results[0].Delivered)
	assert.Equal(t, "corridor", cw.results[0].Scenario)
	assert.Equal(t, epoch.Add(11*time.Second), cw.results[0].Timestamp)

	require.Len(t, pc.rows, 10)
	assert.Equal(t, uint64(10), res.PacketsGenerated)
	assert.Equal(t, 1.0, pc.rows[0].SimTime)
}
