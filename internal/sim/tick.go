package sim

import (
	"context"
	"errors"
	"math"

	"wlan-handoff-sim/internal/assoc"
	"wlan-handoff-sim/internal/logging"
)

// sliceLength is the simulated time between cancellation checks and
// writer flushes.
const sliceLength = 1.0

// ErrAlreadyRun is returned when Run is called twice on one Simulator.
var ErrAlreadyRun = errors.New("simulator already ran")

// Run executes the simulation until warmup + simulation_time and returns
// the throughput result. The context is checked between one-second slices
// of simulated time; on cancellation Run returns ctx.Err().
func (s *Simulator) Run(ctx context.Context) (Result, error) {
	log := logging.FromContext(ctx)
	if s.ran {
		return Result{}, ErrAlreadyRun
	}
	s.ran = true

	end := s.cfg.WarmupTime() + s.cfg.SimulationTime
	log.Info("starting simulation",
		"run_id", s.runID,
		"scenario", s.cfg.Name,
		"stations", len(s.stations),
		"access_points", len(s.aps),
		"end", end)

	for k := 1; ; k++ {
		if err := ctx.Err(); err != nil {
			log.Info("simulation cancelled", "run_id", s.runID, "sim_time", s.queue.Now())
			s.flush(ctx)
			return Result{}, err
		}
		sliceEnd := math.Min(float64(k)*sliceLength, end)
		s.queue.RunUntil(sliceEnd)
		s.flush(ctx)
		if sliceEnd >= end {
			break
		}
	}

	res := s.result()
	log.Info("simulation finished",
		"run_id", s.runID,
		"generated", res.PacketsGenerated,
		"delivered", res.PacketsDelivered,
		"handoffs", res.Handoffs,
		"throughput_mbps", res.ThroughputMbps)

	if s.resultWriter != nil {
		if err := s.resultWriter.WriteResult(res.Row(s.gen.At(end))); err != nil {
			log.Error("result write failed", "err", err)
		}
	}
	return res, nil
}

func (s *Simulator) result() Result {
	res := Result{
		RunID:            s.runID,
		Scenario:         s.cfg.Name,
		Seed:             s.cfg.Seed,
		PayloadSize:      s.cfg.PayloadSize,
		SimulationTime:   s.cfg.SimulationTime,
		PacketsGenerated: s.flow.Generated,
		PacketsDelivered: s.flow.Receiver.Received,
		BytesReceived:    s.flow.Receiver.Bytes,
		Events:           s.queue.Executed(),
	}
	res.ThroughputMbps = Throughput(res.PacketsDelivered, res.PayloadSize, res.SimulationTime)
	for _, tr := range s.transitions {
		switch tr.Kind {
		case assoc.Handoff:
			res.Handoffs++
		case assoc.Associate:
			res.Associations++
		case assoc.Disassociate:
			res.Disassociations++
		}
	}
	return res
}

// flush hands the rows buffered during a slice to the writers. Sink errors
// are logged and never affect the simulation.
func (s *Simulator) flush(ctx context.Context) {
	log := logging.FromContext(ctx)

	if len(s.handoffs) > 0 {
		if bw, ok := s.handoffWriter.(batchHandoffWriter); ok {
			if err := bw.WriteHandoffs(s.handoffs); err != nil {
				log.Error("handoff batch write failed", "err", err)
			}
		} else {
			for _, row := range s.handoffs {
				if err := s.handoffWriter.WriteHandoff(row); err != nil {
					log.Error("handoff write failed", "station", row.Station, "err", err)
				}
			}
		}
		s.handoffs = s.handoffs[:0]
	}

	if len(s.samples) > 0 {
		if bw, ok := s.sampleWriter.(batchSampleWriter); ok {
			if err := bw.WriteSamples(s.samples); err != nil {
				log.Error("sample batch write failed", "err", err)
			}
		} else {
			for _, row := range s.samples {
				if err := s.sampleWriter.WriteSample(row); err != nil {
					log.Error("sample write failed", "node", row.Node, "err", err)
				}
			}
		}
		s.samples = s.samples[:0]
	}

	if len(s.packets) > 0 {
		if bw, ok := s.packetWriter.(batchPacketWriter); ok {
			if err := bw.WritePackets(s.packets); err != nil {
				log.Error("packet batch write failed", "err", err)
			}
		} else {
			for _, row := range s.packets {
				if err := s.packetWriter.WritePacket(row); err != nil {
					log.Error("packet write failed", "seq", row.Seq, "err", err)
					break
				}
			}
		}
		s.packets = s.packets[:0]
	}
}
