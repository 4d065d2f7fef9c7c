// Simulator wiring nodes, mobility, association and traffic onto one event queue
package sim

import (
	"fmt"
	"math/rand"
	"net/netip"
	"time"

	"github.com/google/uuid"

	"wlan-handoff-sim/internal/assoc"
	"wlan-handoff-sim/internal/config"
	"wlan-handoff-sim/internal/engine"
	"wlan-handoff-sim/internal/mobility"
	"wlan-handoff-sim/internal/node"
	"wlan-handoff-sim/internal/radio"
	"wlan-handoff-sim/internal/telemetry"
	"wlan-handoff-sim/internal/traffic"
)

// Result is the outcome of one run.
type Result struct {
	RunID            string  `json:"run_id"`
	Scenario         string  `json:"scenario"`
	Seed             int64   `json:"seed"`
	PayloadSize      int     `json:"payload_size"`
	SimulationTime   float64 `json:"simulation_time"`
	PacketsGenerated uint64  `json:"packets_generated"`
	PacketsDelivered uint64  `json:"packets_delivered"`
	BytesReceived    uint64  `json:"bytes_received"`
	ThroughputMbps   float64 `json:"throughput_mbps"`
	Handoffs         int     `json:"handoffs"`
	Associations     int     `json:"associations"`
	Disassociations  int     `json:"disassociations"`
	Events           uint64  `json:"events"`
}

// Row converts the result for result sinks.
func (r Result) Row(ts time.Time) telemetry.ResultRow {
	return telemetry.ResultRow{
		RunID:          r.RunID,
		Scenario:       r.Scenario,
		Seed:           r.Seed,
		PayloadSize:    r.PayloadSize,
		SimulationTime: r.SimulationTime,
		Generated:      r.PacketsGenerated,
		Delivered:      r.PacketsDelivered,
		Handoffs:       r.Handoffs,
		ThroughputMbps: r.ThroughputMbps,
		Timestamp:      ts.UTC(),
	}
}

// Throughput returns the application throughput in Mbps.
func Throughput(delivered uint64, payloadSize int, simulationTime float64) float64 {
	return float64(delivered) * float64(payloadSize) * 8 / (simulationTime * 1e6)
}

// Option customises a Simulator.
type Option func(*Simulator)

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option { return func(s *Simulator) { s.runID = id } }

// WithClock sets the wall clock used for the run epoch.
func WithClock(now func() time.Time) Option { return func(s *Simulator) { s.now = now } }

// WithHandoffWriter receives association transitions.
func WithHandoffWriter(w HandoffWriter) Option { return func(s *Simulator) { s.handoffWriter = w } }

// WithSampleWriter receives node positions on every mobility tick.
func WithSampleWriter(w SampleWriter) Option { return func(s *Simulator) { s.sampleWriter = w } }

// WithPacketWriter receives every send attempt of the flow.
func WithPacketWriter(w PacketWriter) Option { return func(s *Simulator) { s.packetWriter = w } }

// WithResultWriter receives the final result.
func WithResultWriter(w ResultWriter) Option { return func(s *Simulator) { s.resultWriter = w } }

// WithWriter registers w for every row kind it implements.
func WithWriter(w any) Option {
	return func(s *Simulator) {
		if hw, ok := w.(HandoffWriter); ok {
			s.handoffWriter = hw
		}
		if sw, ok := w.(SampleWriter); ok {
			s.sampleWriter = sw
		}
		if pw, ok := w.(PacketWriter); ok {
			s.packetWriter = pw
		}
		if rw, ok := w.(ResultWriter); ok {
			s.resultWriter = rw
		}
	}
}

// Simulator owns the event queue and every entity of one run. Instances
// share no state and may run concurrently.
type Simulator struct {
	cfg   *config.SimulationConfig
	runID string
	now   func() time.Time
	epoch time.Time

	queue    *engine.Queue
	model    radio.Model
	mobility *mobility.Model
	stations []*node.Node
	aps      []*node.Node
	byName   map[string]*node.Node
	machines map[int]*assoc.Machine
	flow     *traffic.Flow
	gen      *telemetry.Generator

	handoffWriter HandoffWriter
	sampleWriter  SampleWriter
	packetWriter  PacketWriter
	resultWriter  ResultWriter

	transitions []assoc.Transition
	handoffs    []telemetry.HandoffRow
	samples     []telemetry.SampleRow
	packets     []telemetry.PacketRow
	ran         bool
}

// NewSimulator builds the topology described by cfg. Mobility is installed
// first, then association, then traffic, so that events sharing a timestamp
// run in that order.
func NewSimulator(cfg *config.SimulationConfig, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:      cfg,
		now:      time.Now,
		queue:    engine.New(),
		mobility: &mobility.Model{},
		byName:   make(map[string]*node.Node),
		machines: make(map[int]*assoc.Machine),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.New().String()
	}
	s.epoch = s.now().UTC()

	model, err := radio.New(cfg.Propagation.Params())
	if err != nil {
		return nil, fmt.Errorf("%w: propagation: %v", config.ErrInvalidConfiguration, err)
	}
	s.model = model

	if err := s.buildNodes(); err != nil {
		return nil, err
	}
	s.gen = telemetry.NewGenerator(s.runID, s.epoch, s.Nodes())

	s.installMobility()
	s.installAssociation()
	s.installFlow()
	return s, nil
}

func (s *Simulator) buildNodes() error {
	cfg := s.cfg
	id := 0
	for _, n := range cfg.Stations {
		s.stations = append(s.stations, &node.Node{ID: id, Name: n.Name, Role: node.Station})
		id++
	}
	for _, n := range cfg.AccessPoints {
		s.aps = append(s.aps, &node.Node{ID: id, Name: n.Name, Role: node.AccessPoint})
		id++
	}
	for _, n := range s.Nodes() {
		s.byName[n.Name] = n
	}

	// Access points draw from the position list before stations.
	next := 0
	place := func(nodes []*node.Node, specs []config.Node) {
		for i, n := range nodes {
			if p := specs[i].Position; p != nil {
				n.Position = p.Vec()
				continue
			}
			n.Position = cfg.Positions[next%len(cfg.Positions)].Vec()
			next++
		}
	}
	place(s.aps, cfg.AccessPoints)
	place(s.stations, cfg.Stations)

	subnet, err := netip.ParsePrefix(cfg.Subnet)
	if err != nil {
		return fmt.Errorf("%w: subnet: %v", config.ErrInvalidConfiguration, err)
	}
	if err := node.AssignAddresses(subnet, s.Nodes()); err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}
	return nil
}

// nodeRand derives a per-node generator so draws do not depend on how many
// other nodes move.
func (s *Simulator) nodeRand(n *node.Node) *rand.Rand {
	return rand.New(rand.NewSource(s.cfg.Seed*1_000_003 + int64(n.ID)))
}

func (s *Simulator) installMobility() {
	s.mobility.OnMove = s.onMove
	for i, n := range s.aps {
		spec := s.cfg.NodeMobility(s.cfg.AccessPoints[i]).Spec()
		s.mobility.Install(s.queue, n, spec, s.nodeRand(n), 0)
	}
	for i, n := range s.stations {
		spec := s.cfg.NodeMobility(s.cfg.Stations[i]).Spec()
		s.mobility.Install(s.queue, n, spec, s.nodeRand(n), 0)
	}
}

func (s *Simulator) installAssociation() {
	policy := s.cfg.Association.Policy(s.model)
	for _, st := range s.stations {
		m := assoc.New(st, s.aps, s.model, policy)
		m.OnTransition = s.onTransition
		m.Install(s.queue, 0)
		s.machines[st.ID] = m
	}
}

func (s *Simulator) installFlow() {
	warmup := s.cfg.WarmupTime()
	s.flow = &traffic.Flow{
		ID:          1,
		Source:      s.byName[s.cfg.Flow.Source].ID,
		Destination: s.byName[s.cfg.Flow.Destination].ID,
		Port:        s.cfg.Flow.Port,
		PacketSize:  s.cfg.PayloadSize,
		Interval:    s.cfg.Flow.Interval,
		Start:       warmup,
		Stop:        warmup + s.cfg.SimulationTime,
		MaxPackets:  s.cfg.Flow.MaxPackets,
		OnPacket:    s.onPacket,
	}
	s.flow.Install(s.queue, traffic.PathFunc(s.connected))
}

// connected reports whether both endpoints can reach the distribution
// system: stations need an association, access points always can.
func (s *Simulator) connected(src, dst int, _ float64) bool {
	for _, id := range [2]int{src, dst} {
		m, isStation := s.machines[id]
		if !isStation {
			continue
		}
		if _, ok := m.Associated(); !ok {
			return false
		}
	}
	return true
}

func (s *Simulator) onMove(n *node.Node, now float64) {
	if s.sampleWriter == nil {
		return
	}
	s.samples = append(s.samples, s.gen.Sample(n, s.machines[n.ID], now))
}

func (s *Simulator) onTransition(tr assoc.Transition) {
	s.transitions = append(s.transitions, tr)
	if s.handoffWriter != nil {
		s.handoffs = append(s.handoffs, s.gen.Handoff(tr))
	}
}

func (s *Simulator) onPacket(p traffic.Packet) {
	if s.packetWriter != nil {
		s.packets = append(s.packets, s.gen.Packet(p))
	}
}

// SetPacketWriter attaches a packet sink after construction, for sinks that
// need the flow endpoints.
func (s *Simulator) SetPacketWriter(w PacketWriter) { s.packetWriter = w }

// RunID returns the identifier stamped on every row.
func (s *Simulator) RunID() string { return s.runID }

// Config returns the configuration the simulator was built from.
func (s *Simulator) Config() *config.SimulationConfig { return s.cfg }

// Nodes returns stations followed by access points.
func (s *Simulator) Nodes() []*node.Node {
	out := make([]*node.Node, 0, len(s.stations)+len(s.aps))
	out = append(out, s.stations...)
	return append(out, s.aps...)
}

// Node looks a node up by name.
func (s *Simulator) Node(name string) (*node.Node, bool) {
	n, ok := s.byName[name]
	return n, ok
}

// FlowEndpoints returns the source and destination of the flow.
func (s *Simulator) FlowEndpoints() (src, dst *node.Node) {
	return s.byName[s.cfg.Flow.Source], s.byName[s.cfg.Flow.Destination]
}

// Machine returns the association state machine of a station.
func (s *Simulator) Machine(stationID int) (*assoc.Machine, bool) {
	m, ok := s.machines[stationID]
	return m, ok
}

// Transitions returns every association change so far, in order.
func (s *Simulator) Transitions() []assoc.Transition { return s.transitions }

// Flow returns the traffic flow with its live counters.
func (s *Simulator) Flow() *traffic.Flow { return s.flow }

// Now returns the current simulated time.
func (s *Simulator) Now() float64 { return s.queue.Now() }
