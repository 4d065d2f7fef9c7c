// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"wlan-handoff-sim/internal/assoc"
	"wlan-handoff-sim/internal/mobility"
	"wlan-handoff-sim/internal/radio"
)

// ErrInvalidConfiguration is wrapped by every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// Defaults of the public hotspot scenario.
const (
	DefaultPayloadSize    = 2048
	DefaultSimulationTime = 10.0
	DefaultWarmup         = 1.0
	DefaultSubnet         = "192.168.1.0/24"
	DefaultFlowInterval   = 0.00002
	DefaultFlowPort       = 100
	DefaultCheckInterval  = 0.1024
	DefaultMaxRange       = 100.0
	DefaultAssocThreshold = 0.4
	DefaultDisassocThresh = 0.3
	DefaultHysteresis     = 0.05
)

// Point is a position or vector in the simulation plane.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Bounds is the rectangle a random walk is confined to.
type Bounds struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MinY float64 `yaml:"min_y" json:"min_y"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MaxY float64 `yaml:"max_y" json:"max_y"`
}

// Mobility describes how a node moves.
type Mobility struct {
	Kind       string  `yaml:"kind" json:"kind"`
	Interval   float64 `yaml:"interval" json:"interval"`
	SpeedMin   float64 `yaml:"speed_min" json:"speed_min"`
	SpeedMax   float64 `yaml:"speed_max" json:"speed_max"`
	MaxSegment float64 `yaml:"max_segment" json:"max_segment"`
	Bounds     Bounds  `yaml:"bounds" json:"bounds"`
	Velocity   Point   `yaml:"velocity" json:"velocity"`
}

// Spec converts the configuration into a mobility spec.
func (m Mobility) Spec() mobility.Spec {
	return mobility.Spec{
		Kind:       mobility.Kind(m.Kind),
		Interval:   m.Interval,
		SpeedMin:   m.SpeedMin,
		SpeedMax:   m.SpeedMax,
		MaxSegment: m.MaxSegment,
		Bounds: r2.Box{
			Min: r2.Vec{X: m.Bounds.MinX, Y: m.Bounds.MinY},
			Max: r2.Vec{X: m.Bounds.MaxX, Y: m.Bounds.MaxY},
		},
		Velocity: m.Velocity.Vec(),
	}
}

// Node is one access point or station. Position and Mobility are optional;
// missing positions come from the Positions list and missing mobility from
// the top-level Mobility.
type Node struct {
	Name     string    `yaml:"name" json:"name"`
	Position *Point    `yaml:"position,omitempty" json:"position,omitempty"`
	Mobility *Mobility `yaml:"mobility,omitempty" json:"mobility,omitempty"`
}

// Propagation selects the link-quality model.
type Propagation struct {
	Model           string  `yaml:"model" json:"model"`
	MaxRange        float64 `yaml:"max_range" json:"max_range"`
	TxPowerDbm      float64 `yaml:"tx_power_dbm" json:"tx_power_dbm"`
	ReferenceLossDb float64 `yaml:"reference_loss_db" json:"reference_loss_db"`
	Exponent        float64 `yaml:"exponent" json:"exponent"`
	SensitivityDbm  float64 `yaml:"sensitivity_dbm" json:"sensitivity_dbm"`
}

// Params converts the configuration into radio model parameters.
func (p Propagation) Params() radio.Params {
	return radio.Params{
		Kind:            radio.Kind(p.Model),
		MaxRange:        p.MaxRange,
		TxPowerDbm:      p.TxPowerDbm,
		ReferenceLossDb: p.ReferenceLossDb,
		Exponent:        p.Exponent,
		SensitivityDbm:  p.SensitivityDbm,
	}
}

// Association holds the handoff policy. Each threshold may instead be given
// as a range, which is converted through the propagation model.
type Association struct {
	AssociationThreshold    float64  `yaml:"association_threshold" json:"association_threshold"`
	DisassociationThreshold float64  `yaml:"disassociation_threshold" json:"disassociation_threshold"`
	AssociationRange        float64  `yaml:"association_range" json:"association_range"`
	DisassociationRange     float64  `yaml:"disassociation_range" json:"disassociation_range"`
	Hysteresis              *float64 `yaml:"hysteresis,omitempty" json:"hysteresis,omitempty"`
	CheckInterval           float64  `yaml:"check_interval" json:"check_interval"`
}

// Policy resolves ranges against model and returns the state machine policy.
func (a Association) Policy(model radio.Model) assoc.Policy {
	p := assoc.Policy{
		AssociationThreshold:    a.AssociationThreshold,
		DisassociationThreshold: a.DisassociationThreshold,
		CheckInterval:           a.CheckInterval,
	}
	if a.AssociationRange > 0 {
		p.AssociationThreshold = radio.ThresholdForRange(model, a.AssociationRange)
	}
	if a.DisassociationRange > 0 {
		p.DisassociationThreshold = radio.ThresholdForRange(model, a.DisassociationRange)
	}
	if a.Hysteresis != nil {
		p.Hysteresis = *a.Hysteresis
	}
	return p
}

// Flow is the saturation UDP stream between two named nodes.
type Flow struct {
	Source      string  `yaml:"source" json:"source"`
	Destination string  `yaml:"destination" json:"destination"`
	Port        int     `yaml:"port" json:"port"`
	Interval    float64 `yaml:"interval" json:"interval"`
	MaxPackets  uint64  `yaml:"max_packets" json:"max_packets"`
}

// SimulationConfig is the root configuration of one run.
type SimulationConfig struct {
	Name           string      `yaml:"name" json:"name"`
	Seed           int64       `yaml:"seed" json:"seed"`
	PayloadSize    int         `yaml:"payload_size" json:"payload_size"`
	SimulationTime float64     `yaml:"simulation_time" json:"simulation_time"`
	Warmup         *float64    `yaml:"warmup,omitempty" json:"warmup,omitempty"`
	Subnet         string      `yaml:"subnet" json:"subnet"`
	Positions      []Point     `yaml:"positions" json:"positions"`
	AccessPoints   []Node      `yaml:"access_points" json:"access_points"`
	Stations       []Node      `yaml:"stations" json:"stations"`
	Mobility       Mobility    `yaml:"mobility" json:"mobility"`
	Propagation    Propagation `yaml:"propagation" json:"propagation"`
	Association    Association `yaml:"association" json:"association"`
	Flow           Flow        `yaml:"flow" json:"flow"`
}

// WarmupTime returns the configured warm-up, which ApplyDefaults fills in.
func (c *SimulationConfig) WarmupTime() float64 {
	if c.Warmup == nil {
		return DefaultWarmup
	}
	return *c.Warmup
}

// Load reads a YAML file, validates it against the embedded CUE schema,
// applies defaults and runs the semantic checks.
func Load(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse is Load for in-memory documents; name is used in error messages.
func Parse(name string, data []byte) (*SimulationConfig, error) {
	if err := ValidateSchema(name, data); err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, invalid("%s: %v", name, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields. Nodes without a name are numbered
// ap-N and sta-N.
func (c *SimulationConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "custom"
	}
	if c.PayloadSize == 0 {
		c.PayloadSize = DefaultPayloadSize
	}
	if c.SimulationTime == 0 {
		c.SimulationTime = DefaultSimulationTime
	}
	if c.Warmup == nil {
		w := DefaultWarmup
		c.Warmup = &w
	}
	if c.Subnet == "" {
		c.Subnet = DefaultSubnet
	}
	for i := range c.AccessPoints {
		if c.AccessPoints[i].Name == "" {
			c.AccessPoints[i].Name = fmt.Sprintf("ap-%d", i)
		}
	}
	for i := range c.Stations {
		if c.Stations[i].Name == "" {
			c.Stations[i].Name = fmt.Sprintf("sta-%d", i)
		}
	}
	if c.Mobility.Kind == "" {
		c.Mobility.Kind = string(mobility.Static)
	}
	if c.Mobility.Interval == 0 {
		c.Mobility.Interval = 1
	}
	if c.Propagation.Model == "" {
		c.Propagation.Model = string(radio.KindRange)
	}
	if c.Propagation.Model == string(radio.KindRange) && c.Propagation.MaxRange == 0 {
		c.Propagation.MaxRange = DefaultMaxRange
	}
	a := &c.Association
	if a.AssociationThreshold == 0 && a.AssociationRange == 0 {
		a.AssociationThreshold = DefaultAssocThreshold
	}
	if a.DisassociationThreshold == 0 && a.DisassociationRange == 0 {
		a.DisassociationThreshold = DefaultDisassocThresh
	}
	if a.Hysteresis == nil {
		h := DefaultHysteresis
		a.Hysteresis = &h
	}
	if a.CheckInterval == 0 {
		a.CheckInterval = DefaultCheckInterval
	}
	if c.Flow.Source == "" && len(c.AccessPoints) > 0 {
		c.Flow.Source = c.AccessPoints[0].Name
	}
	if c.Flow.Destination == "" && len(c.Stations) > 0 {
		c.Flow.Destination = c.Stations[0].Name
	}
	if c.Flow.Port == 0 {
		c.Flow.Port = DefaultFlowPort
	}
	if c.Flow.Interval == 0 {
		c.Flow.Interval = DefaultFlowInterval
	}
}

// NodeMobility returns the movement of n, falling back to the default.
func (c *SimulationConfig) NodeMobility(n Node) Mobility {
	if n.Mobility == nil {
		return c.Mobility
	}
	m := *n.Mobility
	if m.Kind == "" {
		m.Kind = c.Mobility.Kind
	}
	if m.Interval == 0 {
		m.Interval = c.Mobility.Interval
	}
	return m
}

// Validate performs the semantic checks the schema cannot express.
func (c *SimulationConfig) Validate() error {
	if c.PayloadSize <= 0 {
		return invalid("payload_size must be positive, got %d", c.PayloadSize)
	}
	if !(c.SimulationTime > 0) {
		return invalid("simulation_time must be positive, got %g", c.SimulationTime)
	}
	if w := c.WarmupTime(); w < 0 {
		return invalid("warmup must not be negative, got %g", w)
	}
	if len(c.AccessPoints) == 0 {
		return invalid("at least one access point is required")
	}
	if len(c.Stations) == 0 {
		return invalid("at least one station is required")
	}

	subnet, err := netip.ParsePrefix(c.Subnet)
	if err != nil {
		return invalid("subnet: %v", err)
	}
	if !subnet.Addr().Is4() {
		return invalid("subnet %s: only IPv4 is supported", subnet)
	}
	if hosts := 1<<(32-subnet.Bits()) - 2; len(c.AccessPoints)+len(c.Stations) > hosts {
		return invalid("subnet %s has room for %d nodes", subnet, hosts)
	}

	names := make(map[string]string)
	check := func(role string, nodes []Node) error {
		for _, n := range nodes {
			if prev, dup := names[n.Name]; dup {
				return invalid("%s name %q already used by a %s", role, n.Name, prev)
			}
			names[n.Name] = role
			if n.Position == nil && len(c.Positions) == 0 {
				return invalid("%s %q has no position and no positions list is set", role, n.Name)
			}
			if err := c.NodeMobility(n).Spec().Validate(); err != nil {
				return invalid("%s %q mobility: %v", role, n.Name, err)
			}
		}
		return nil
	}
	if err := check("access point", c.AccessPoints); err != nil {
		return err
	}
	if err := check("station", c.Stations); err != nil {
		return err
	}

	model, err := radio.New(c.Propagation.Params())
	if err != nil {
		return invalid("propagation: %v", err)
	}
	a := c.Association
	if a.AssociationThreshold > 0 && a.AssociationRange > 0 {
		return invalid("association: set either association_threshold or association_range")
	}
	if a.DisassociationThreshold > 0 && a.DisassociationRange > 0 {
		return invalid("association: set either disassociation_threshold or disassociation_range")
	}
	if err := a.Policy(model).Validate(); err != nil {
		return invalid("association: %v", err)
	}

	if _, ok := names[c.Flow.Source]; !ok {
		return invalid("flow source %q is not a node", c.Flow.Source)
	}
	if _, ok := names[c.Flow.Destination]; !ok {
		return invalid("flow destination %q is not a node", c.Flow.Destination)
	}
	if c.Flow.Source == c.Flow.Destination {
		return invalid("flow source and destination are both %q", c.Flow.Source)
	}
	if !(c.Flow.Interval > 0) {
		return invalid("flow interval must be positive, got %g", c.Flow.Interval)
	}
	if c.Flow.Port < 0 || c.Flow.Port > 65535 {
		return invalid("flow port %d out of range", c.Flow.Port)
	}
	return nil
}
