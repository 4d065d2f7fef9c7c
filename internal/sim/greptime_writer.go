package sim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"wlan-handoff-sim/internal/telemetry"
)

// greptimeClient is the subset of the ingester client the writer needs.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes handoffs, samples and results to GreptimeDB via
// the ingester client. Tables are created on first write.
type GreptimeDBWriter struct {
	client       greptimeClient
	handoffTable string
	sampleTable  string
	resultTable  string
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port").
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := endpoint, 0
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("greptime endpoint %q: bad port: %w", endpoint, err)
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port != 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return &GreptimeDBWriter{
		client:       client,
		handoffTable: telemetry.HandoffTableName,
		sampleTable:  telemetry.SampleTableName,
		resultTable:  telemetry.ResultTableName,
	}, nil
}

func (w *GreptimeDBWriter) write(tbl *table.Table, name string, rows int) error {
	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", name, err)
	}
	slog.Debug("greptime rows written", "table", name, "rows", rows)
	return nil
}

// WriteHandoff inserts a single transition.
func (w *GreptimeDBWriter) WriteHandoff(row telemetry.HandoffRow) error {
	return w.WriteHandoffs([]telemetry.HandoffRow{row})
}

// WriteHandoffs inserts multiple transitions.
func (w *GreptimeDBWriter) WriteHandoffs(rows []telemetry.HandoffRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.handoffTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"), tag("station"),
		field("from_ap", types.STRING), field("to_ap", types.STRING),
		field("kind", types.STRING), field("quality", types.FLOAT64),
		field("sim_time", types.FLOAT64),
	); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Station, r.From, r.To, r.Kind, r.Quality, r.SimTime, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, w.handoffTable, len(rows))
}

// WriteSample inserts a single position sample.
func (w *GreptimeDBWriter) WriteSample(row telemetry.SampleRow) error {
	return w.WriteSamples([]telemetry.SampleRow{row})
}

// WriteSamples inserts multiple position samples.
func (w *GreptimeDBWriter) WriteSamples(rows []telemetry.SampleRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.sampleTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"), tag("node"),
		field("role", types.STRING), field("x", types.FLOAT64), field("y", types.FLOAT64),
		field("associated", types.BOOLEAN), field("ap", types.STRING),
		field("quality", types.FLOAT64), field("sim_time", types.FLOAT64),
	); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tbl.AddRow(r.RunID, r.Node, r.Role, r.X, r.Y, r.Associated, r.AP, r.Quality, r.SimTime, r.Timestamp); err != nil {
			return err
		}
	}
	return w.write(tbl, w.sampleTable, len(rows))
}

// WriteResult inserts the run summary.
func (w *GreptimeDBWriter) WriteResult(r telemetry.ResultRow) error {
	tbl, err := table.New(w.resultTable)
	if err != nil {
		return err
	}
	if err := addColumns(tbl,
		tag("run_id"), tag("scenario"),
		field("seed", types.INT64), field("payload_size", types.INT64),
		field("simulation_time", types.FLOAT64),
		field("generated", types.UINT64), field("delivered", types.UINT64),
		field("handoffs", types.INT64), field("throughput_mbps", types.FLOAT64),
	); err != nil {
		return err
	}
	if err := tbl.AddRow(r.RunID, r.Scenario, r.Seed, int64(r.PayloadSize), r.SimulationTime,
		r.Generated, r.Delivered, int64(r.Handoffs), r.ThroughputMbps, r.Timestamp); err != nil {
		return err
	}
	return w.write(tbl, w.resultTable, 1)
}

type column struct {
	name string
	typ  types.ColumnType
	tag  bool
}

func tag(name string) column                          { return column{name: name, typ: types.STRING, tag: true} }
func field(name string, typ types.ColumnType) column { return column{name: name, typ: typ} }

// addColumns declares cols in order followed by the ts time index.
func addColumns(tbl *table.Table, cols ...column) error {
	for _, c := range cols {
		var err error
		if c.tag {
			err = tbl.AddTagColumn(c.name, c.typ)
		} else {
			err = tbl.AddFieldColumn(c.name, c.typ)
		}
		if err != nil {
			return fmt.Errorf("column %s: %w", c.name, err)
		}
	}
	return tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
}
