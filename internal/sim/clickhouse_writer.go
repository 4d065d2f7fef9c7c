package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"wlan-handoff-sim/internal/telemetry"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS wlan_results (
    Timestamp      DateTime64(3),
    RunID          String,
    Scenario       String,
    Seed           Int64,
    PayloadSize    UInt32,
    SimulationTime Float64,
    Generated      UInt64,
    Delivered      UInt64,
    Handoffs       UInt32,
    ThroughputMbps Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Scenario, Timestamp);
`

const createHandoffsTable = `
CREATE TABLE IF NOT EXISTS wlan_handoffs (
    Timestamp DateTime64(3),
    RunID     String,
    Station   String,
    FromAP    String,
    ToAP      String,
    Kind      LowCardinality(String),
    Quality   Float64,
    SimTime   Float64
) ENGINE = MergeTree()
ORDER BY (RunID, SimTime);
`

// ClickHouseOptions configures the ClickHouse connection.
type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseWriter stores run results and handoffs in ClickHouse for
// analysis across sweeps.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and ensures the tables exist.
func NewClickHouseWriter(ctx context.Context, opts ClickHouseOptions) (*ClickHouseWriter, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	for _, ddl := range []string{createResultsTable, createHandoffsTable} {
		if err := conn.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	slog.Info("connected to ClickHouse", "addr", opts.Addr, "database", opts.Database)
	return &ClickHouseWriter{conn: conn}, nil
}

func resultArgs(r telemetry.ResultRow) []any {
	return []any{
		r.Timestamp,
		r.RunID,
		r.Scenario,
		r.Seed,
		uint32(r.PayloadSize),
		r.SimulationTime,
		r.Generated,
		r.Delivered,
		uint32(r.Handoffs),
		r.ThroughputMbps,
	}
}

func handoffArgs(r telemetry.HandoffRow) []any {
	return []any{r.Timestamp, r.RunID, r.Station, r.From, r.To, r.Kind, r.Quality, r.SimTime}
}

// WriteResult inserts the run summary.
func (w *ClickHouseWriter) WriteResult(row telemetry.ResultRow) error {
	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO wlan_results")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	if err := batch.Append(resultArgs(row)...); err != nil {
		return fmt.Errorf("failed to append result: %w", err)
	}
	return batch.Send()
}

// WriteHandoff inserts one transition.
func (w *ClickHouseWriter) WriteHandoff(row telemetry.HandoffRow) error {
	return w.WriteHandoffs([]telemetry.HandoffRow{row})
}

// WriteHandoffs inserts transitions in one batch.
func (w *ClickHouseWriter) WriteHandoffs(rows []telemetry.HandoffRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO wlan_handoffs")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, r := range rows {
		if err := batch.Append(handoffArgs(r)...); err != nil {
			return fmt.Errorf("failed to append handoff: %w", err)
		}
	}
	return batch.Send()
}

// Close closes the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
