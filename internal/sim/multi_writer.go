package sim

import (
	"errors"
	"io"
	"sync"

	"wlan-handoff-sim/internal/telemetry"
)

// MultiWriter fans rows out to every writer that handles their kind. It is
// safe for concurrent use, so parallel runs can share one set of sinks.
type MultiWriter struct {
	mu       sync.Mutex
	handoffs []HandoffWriter
	samples  []SampleWriter
	packets  []PacketWriter
	results  []ResultWriter
	closers  []io.Closer
}

// NewMultiWriter sorts writers by the row kinds they implement. Writers
// that implement io.Closer are closed by Close.
func NewMultiWriter(writers ...any) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range writers {
		mw.Add(w)
	}
	return mw
}

// Add registers one more writer.
func (mw *MultiWriter) Add(w any) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if hw, ok := w.(HandoffWriter); ok {
		mw.handoffs = append(mw.handoffs, hw)
	}
	if sw, ok := w.(SampleWriter); ok {
		mw.samples = append(mw.samples, sw)
	}
	if pw, ok := w.(PacketWriter); ok {
		mw.packets = append(mw.packets, pw)
	}
	if rw, ok := w.(ResultWriter); ok {
		mw.results = append(mw.results, rw)
	}
	if c, ok := w.(io.Closer); ok {
		mw.closers = append(mw.closers, c)
	}
}

// Empty reports whether no writer was registered.
func (mw *MultiWriter) Empty() bool {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return len(mw.handoffs)+len(mw.samples)+len(mw.packets)+len(mw.results) == 0
}

// WriteHandoff sends a transition to all handoff writers.
func (mw *MultiWriter) WriteHandoff(row telemetry.HandoffRow) error {
	return mw.WriteHandoffs([]telemetry.HandoffRow{row})
}

// WriteHandoffs sends transitions to all handoff writers, using batch mode
// where supported.
func (mw *MultiWriter) WriteHandoffs(rows []telemetry.HandoffRow) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var errs []error
	for _, w := range mw.handoffs {
		if bw, ok := w.(batchHandoffWriter); ok {
			errs = append(errs, bw.WriteHandoffs(rows))
			continue
		}
		for _, r := range rows {
			if err := w.WriteHandoff(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteSample sends a position sample to all sample writers.
func (mw *MultiWriter) WriteSample(row telemetry.SampleRow) error {
	return mw.WriteSamples([]telemetry.SampleRow{row})
}

// WriteSamples sends samples to all sample writers.
func (mw *MultiWriter) WriteSamples(rows []telemetry.SampleRow) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var errs []error
	for _, w := range mw.samples {
		if bw, ok := w.(batchSampleWriter); ok {
			errs = append(errs, bw.WriteSamples(rows))
			continue
		}
		for _, r := range rows {
			if err := w.WriteSample(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WritePacket sends a packet record to all packet writers.
func (mw *MultiWriter) WritePacket(row telemetry.PacketRow) error {
	return mw.WritePackets([]telemetry.PacketRow{row})
}

// WritePackets sends packet records to all packet writers.
func (mw *MultiWriter) WritePackets(rows []telemetry.PacketRow) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var errs []error
	for _, w := range mw.packets {
		if bw, ok := w.(batchPacketWriter); ok {
			errs = append(errs, bw.WritePackets(rows))
			continue
		}
		for _, r := range rows {
			if err := w.WritePacket(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteResult sends the run summary to all result writers.
func (mw *MultiWriter) WriteResult(row telemetry.ResultRow) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var errs []error
	for _, w := range mw.results {
		errs = append(errs, w.WriteResult(row))
	}
	return errors.Join(errs...)
}

// Close closes every registered closer.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	var errs []error
	for _, c := range mw.closers {
		errs = append(errs, c.Close())
	}
	mw.closers = nil
	return errors.Join(errs...)
}
