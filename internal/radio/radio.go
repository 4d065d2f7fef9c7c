// Package radio turns station/access point distance into a link quality.
//
// Every model returns a quality in [0, 1] that never increases with distance:
// 1 at distance zero and 0 at or beyond the model's maximum range. Models are
// pure and safe for concurrent use.
package radio

import (
	"fmt"
	"math"
)

// Model maps a distance to a link quality.
type Model interface {
	Quality(distance float64) float64
	// MaxRange is the distance at which quality reaches zero.
	MaxRange() float64
}

// Kind names a propagation model in configuration.
type Kind string

const (
	KindRange       Kind = "range"
	KindLogDistance Kind = "log_distance"
)

// Params configures New.
type Params struct {
	Kind            Kind
	MaxRange        float64
	TxPowerDbm      float64
	ReferenceLossDb float64
	Exponent        float64
	SensitivityDbm  float64
}

// New builds the model described by p.
func New(p Params) (Model, error) {
	switch p.Kind {
	case KindRange, "":
		if !(p.MaxRange > 0) {
			return nil, fmt.Errorf("range model: max range %g must be positive", p.MaxRange)
		}
		return RangeModel{Range: p.MaxRange}, nil
	case KindLogDistance:
		m := LogDistanceModel{
			TxPowerDbm:      p.TxPowerDbm,
			ReferenceLossDb: p.ReferenceLossDb,
			Exponent:        p.Exponent,
			SensitivityDbm:  p.SensitivityDbm,
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown propagation model %q", p.Kind)
	}
}

// RangeModel falls off linearly from 1 at the transmitter to 0 at Range.
type RangeModel struct {
	Range float64
}

func (m RangeModel) Quality(d float64) float64 {
	if d <= 0 {
		return 1
	}
	if d >= m.Range {
		return 0
	}
	return 1 - d/m.Range
}

func (m RangeModel) MaxRange() float64 { return m.Range }

// LogDistanceModel is a log-distance path loss model with a 1 m reference:
//
//	rssi(d) = tx - (ref + 10*n*log10(d))
//
// Quality is the RSSI margin above receiver sensitivity, normalised by the
// margin at the reference distance.
type LogDistanceModel struct {
	TxPowerDbm      float64
	ReferenceLossDb float64
	Exponent        float64
	SensitivityDbm  float64
}

func (m LogDistanceModel) validate() error {
	if !(m.Exponent > 0) {
		return fmt.Errorf("log distance model: exponent %g must be positive", m.Exponent)
	}
	if m.TxPowerDbm-m.ReferenceLossDb <= m.SensitivityDbm {
		return fmt.Errorf("log distance model: sensitivity %g dBm is not reachable at 1 m", m.SensitivityDbm)
	}
	return nil
}

// RSSI returns the received power in dBm at distance d.
func (m LogDistanceModel) RSSI(d float64) float64 {
	loss := m.ReferenceLossDb
	if d > 1 {
		loss += 10 * m.Exponent * math.Log10(d)
	}
	return m.TxPowerDbm - loss
}

func (m LogDistanceModel) Quality(d float64) float64 {
	margin := m.RSSI(d) - m.SensitivityDbm
	full := m.TxPowerDbm - m.ReferenceLossDb - m.SensitivityDbm
	if margin <= 0 {
		return 0
	}
	return math.Min(margin/full, 1)
}

func (m LogDistanceModel) MaxRange() float64 {
	full := m.TxPowerDbm - m.ReferenceLossDb - m.SensitivityDbm
	return math.Pow(10, full/(10*m.Exponent))
}

// ThresholdForRange returns the quality a model reports at distance r, so a
// threshold can be configured as a range instead of a quality value.
func ThresholdForRange(m Model, r float64) float64 {
	return m.Quality(r)
}
