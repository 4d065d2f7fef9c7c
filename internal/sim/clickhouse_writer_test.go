package sim

import (
	"testing"
	"time"

	"wlan-handoff-sim/internal/telemetry"
)

func TestClickHouseArgsMatchColumns(t *testing.T) {
	ts := time.Unix(10, 0).UTC()
	res := resultArgs(telemetry.ResultRow{RunID: "r", Scenario: "corridor", Seed: 4, PayloadSize: 2048,
		SimulationTime: 10, Generated: 5, Delivered: 4, Handoffs: 2, ThroughputMbps: 1.5, Timestamp: ts})
	if len(res) != 10 {
		t.Fatalf("expected 10 result columns, got %d", len(res))
	}
	if res[0] != ts || res[2] != "corridor" || res[4] != uint32(2048) || res[8] != uint32(2) {
		t.Fatalf("unexpected result args: %v", res)
	}

	h := handoffArgs(telemetry.HandoffRow{RunID: "r", Station: "sta-0", From: "ap-0", To: "ap-1", Kind: "handoff", Quality: 0.5, SimTime: 2})
	if len(h) != 8 {
		t.Fatalf("expected 8 handoff columns, got %d", len(h))
	}
	if h[3] != "ap-0" || h[4] != "ap-1" || h[7] != 2.0 {
		t.Fatalf("unexpected handoff args: %v", h)
	}
}
