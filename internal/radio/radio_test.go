package radio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func models(t *testing.T) map[string]Model {
	t.Helper()
	rm, err := New(Params{Kind: KindRange, MaxRange: 100})
	require.NoError(t, err)
	ld, err := New(Params{Kind: KindLogDistance, TxPowerDbm: 20, ReferenceLossDb: 40, Exponent: 3, SensitivityDbm: -82})
	require.NoError(t, err)
	return map[string]Model{"range": rm, "log_distance": ld}
}

func TestQualityMonotonic(t *testing.T) {
	for name, m := range models(t) {
		t.Run(name, func(t *testing.T) {
			prev := m.Quality(0)
			assert.Equal(t, 1.0, prev)
			for d := 0.25; d < 2*m.MaxRange(); d += 0.25 {
				q := m.Quality(d)
				assert.LessOrEqual(t, q, prev, "quality increased at d=%g", d)
				assert.GreaterOrEqual(t, q, 0.0)
				prev = q
			}
		})
	}
}

func TestQualityZeroBeyondRange(t *testing.T) {
	for name, m := range models(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0.0, m.Quality(m.MaxRange()*1.0001))
			assert.Greater(t, m.Quality(m.MaxRange()*0.9), 0.0)
		})
	}
}

func TestRangeModelLinear(t *testing.T) {
	m := RangeModel{Range: 100}
	assert.InDelta(t, 0.4, m.Quality(60), 1e-12)
	assert.InDelta(t, 0.4, ThresholdForRange(m, 60), 1e-12)
}

func TestLogDistanceRSSI(t *testing.T) {
	m := LogDistanceModel{TxPowerDbm: 20, ReferenceLossDb: 40, Exponent: 3, SensitivityDbm: -82}
	assert.InDelta(t, -20, m.RSSI(1), 1e-9)
	assert.InDelta(t, -50, m.RSSI(10), 1e-9)
	// margin of 62 dB over 30 dB per decade
	assert.InDelta(t, 116.59, m.MaxRange(), 0.01)
}

func TestNewRejectsBadParams(t *testing.T) {
	_, err := New(Params{Kind: KindRange})
	assert.Error(t, err)
	_, err = New(Params{Kind: KindLogDistance, Exponent: 0})
	assert.Error(t, err)
	_, err = New(Params{Kind: KindLogDistance, TxPowerDbm: 0, ReferenceLossDb: 40, Exponent: 2, SensitivityDbm: -30})
	assert.Error(t, err)
	_, err = New(Params{Kind: "two_ray"})
	assert.Error(t, err)
}
