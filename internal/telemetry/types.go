// Row types emitted by the simulator, tagged for GreptimeDB and JSON sinks.
package telemetry

import (
	"os"
	"time"
)

// Transition kinds as they appear in HandoffRow.Kind.
const (
	KindAssociate    = "associate"
	KindHandoff      = "handoff"
	KindDisassociate = "disassociate"
)

// HandoffRow records one change of a station's access point.
type HandoffRow struct {
	RunID     string    `json:"run_id"`  // TAG
	Station   string    `json:"station"` // TAG
	From      string    `json:"from"`    // FIELD, empty when unassociated
	To        string    `json:"to"`      // FIELD, empty after disassociation
	Kind      string    `json:"kind"`    // FIELD
	Quality   float64   `json:"quality"` // FIELD
	SimTime   float64   `json:"sim_time"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// SampleRow is a position sample of a node taken on a mobility tick.
type SampleRow struct {
	RunID      string    `json:"run_id"` // TAG
	Node       string    `json:"node"`   // TAG
	Role       string    `json:"role"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Associated bool      `json:"associated"`
	AP         string    `json:"ap,omitempty"`
	Quality    float64   `json:"quality"`
	SimTime    float64   `json:"sim_time"`
	Timestamp  time.Time `json:"ts"`
}

// PacketRow is one send attempt of a traffic flow.
type PacketRow struct {
	RunID     string    `json:"run_id"`
	FlowID    int       `json:"flow_id"`
	Seq       uint64    `json:"seq"`
	Size      int       `json:"size"`
	Delivered bool      `json:"delivered"`
	SimTime   float64   `json:"sim_time"`
	Timestamp time.Time `json:"ts"`
}

// ResultRow summarises a finished run.
type ResultRow struct {
	RunID          string    `json:"run_id"`   // TAG
	Scenario       string    `json:"scenario"` // TAG
	Seed           int64     `json:"seed"`
	PayloadSize    int       `json:"payload_size"`
	SimulationTime float64   `json:"simulation_time"`
	Generated      uint64    `json:"generated"`
	Delivered      uint64    `json:"delivered"`
	Handoffs       int       `json:"handoffs"`
	ThroughputMbps float64   `json:"throughput_mbps"`
	Timestamp      time.Time `json:"ts"`
}

func tableName(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// Table names default to wlan_* and can be overridden through the
// environment, e.g. GREPTIMEDB_HANDOFF_TABLE.
var (
	HandoffTableName = tableName("GREPTIMEDB_HANDOFF_TABLE", "wlan_handoffs")
	SampleTableName  = tableName("GREPTIMEDB_SAMPLE_TABLE", "wlan_samples")
	ResultTableName  = tableName("GREPTIMEDB_RESULT_TABLE", "wlan_results")
)

func (HandoffRow) TableName() string { return HandoffTableName }
func (SampleRow) TableName() string  { return SampleTableName }
func (ResultRow) TableName() string  { return ResultTableName }
