package sim

import "wlan-handoff-sim/internal/telemetry"

// HandoffWriter handles association transitions.
type HandoffWriter interface {
	WriteHandoff(telemetry.HandoffRow) error
}

// Optional: handoff writers may support batch mode.
type batchHandoffWriter interface {
	WriteHandoffs([]telemetry.HandoffRow) error
}

// SampleWriter handles node position samples.
type SampleWriter interface {
	WriteSample(telemetry.SampleRow) error
}

type batchSampleWriter interface {
	WriteSamples([]telemetry.SampleRow) error
}

// PacketWriter handles per-packet records.
type PacketWriter interface {
	WritePacket(telemetry.PacketRow) error
}

type batchPacketWriter interface {
	WritePackets([]telemetry.PacketRow) error
}

// ResultWriter handles the summary of a finished run.
type ResultWriter interface {
	WriteResult(telemetry.ResultRow) error
}
