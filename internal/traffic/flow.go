// Package traffic generates a constant-rate UDP packet stream and counts
// what reaches the receiver. Delivery depends only on whether a path exists
// at send time; no queueing, loss or reordering is modelled.
package traffic

import (
	"fmt"

	"wlan-handoff-sim/internal/engine"
)

// Path decides whether a packet from src can reach dst at time now.
type Path interface {
	Connected(src, dst int, now float64) bool
}

// PathFunc adapts a function to Path.
type PathFunc func(src, dst int, now float64) bool

func (f PathFunc) Connected(src, dst int, now float64) bool { return f(src, dst, now) }

// Packet describes one send attempt, for packet-level sinks.
type Packet struct {
	FlowID    int
	Seq       uint64
	Time      float64
	Size      int
	Delivered bool
}

// Receiver accumulates what arrived at the destination.
type Receiver struct {
	Received uint64
	Bytes    uint64
}

// Flow is one saturation UDP stream.
type Flow struct {
	ID          int
	Source      int
	Destination int
	Port        int
	PacketSize  int
	Interval    float64
	Start       float64
	Stop        float64
	// MaxPackets caps the number of packets sent; 0 means unlimited.
	MaxPackets uint64

	Generated uint64
	Delivered uint64
	Receiver  Receiver

	OnPacket func(Packet)
}

// Validate checks the flow parameters.
func (f *Flow) Validate() error {
	if f.PacketSize <= 0 {
		return fmt.Errorf("flow %d: packet size %d must be positive", f.ID, f.PacketSize)
	}
	if !(f.Interval > 0) {
		return fmt.Errorf("flow %d: interval %g must be positive", f.ID, f.Interval)
	}
	if f.Stop < f.Start {
		return fmt.Errorf("flow %d: stop %g before start %g", f.ID, f.Stop, f.Start)
	}
	return nil
}

// Install schedules the first send at Start. Later sends happen at
// Start + n*Interval until Stop is reached.
func (f *Flow) Install(q *engine.Queue, path Path) {
	q.MustSchedule(f.Start, func() { f.send(q, path) })
}

func (f *Flow) send(q *engine.Queue, path Path) {
	now := q.Now()
	if now >= f.Stop {
		return
	}
	if f.MaxPackets > 0 && f.Generated >= f.MaxPackets {
		return
	}

	f.Generated++
	delivered := path.Connected(f.Source, f.Destination, now)
	if delivered {
		f.Delivered++
		f.Receiver.Received++
		f.Receiver.Bytes += uint64(f.PacketSize)
	}
	if f.OnPacket != nil {
		f.OnPacket(Packet{FlowID: f.ID, Seq: f.Generated - 1, Time: now, Size: f.PacketSize, Delivered: delivered})
	}

	next := f.Start + float64(f.Generated)*f.Interval
	if next < f.Stop {
		q.MustSchedule(next, func() { f.send(q, path) })
	}
}
