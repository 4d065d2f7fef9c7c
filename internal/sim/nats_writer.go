package sim

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"wlan-handoff-sim/internal/telemetry"
)

// DefaultNATSSubject is used when NATS_SUBJECT is unset.
const DefaultNATSSubject = "wlan.handoffs"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSWriter publishes handoffs as JSON on subject and results on
// subject + ".results".
type NATSWriter struct {
	nc      *nats.Conn
	pub     publisher
	subject string
}

// NewNATSWriter connects to the NATS server at url.
func NewNATSWriter(url, subject string) (*NATSWriter, error) {
	nc, err := nats.Connect(url, nats.Name("wlan-handoff-sim"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	if subject == "" {
		subject = DefaultNATSSubject
	}
	slog.Info("connected to NATS", "url", url, "subject", subject)
	return &NATSWriter{nc: nc, pub: nc, subject: subject}, nil
}

func (w *NATSWriter) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.pub.Publish(subject, data)
}

// WriteHandoff publishes one transition.
func (w *NATSWriter) WriteHandoff(row telemetry.HandoffRow) error {
	return w.publish(w.subject, row)
}

// WriteResult publishes the run summary.
func (w *NATSWriter) WriteResult(row telemetry.ResultRow) error {
	return w.publish(w.subject+".results", row)
}

// Close drains and closes the NATS connection.
func (w *NATSWriter) Close() error {
	if w.nc == nil {
		return nil
	}
	return w.nc.Drain()
}
