package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wlan-handoff-sim/internal/telemetry"
)

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	paths := FilePaths{
		Handoffs: filepath.Join(dir, "handoffs.jsonl"),
		Results:  filepath.Join(dir, "results.jsonl"),
	}
	fw, err := NewFileWriter(paths)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	rows := []telemetry.HandoffRow{
		{RunID: "r1", Station: "sta-0", To: "ap-0", Kind: telemetry.KindAssociate, Quality: 0.9, Timestamp: ts},
		{RunID: "r1", Station: "sta-0", From: "ap-0", To: "ap-1", Kind: telemetry.KindHandoff, Quality: 0.6, SimTime: 4, Timestamp: ts},
	}
	if err := fw.WriteHandoffs(rows); err != nil {
		t.Fatalf("WriteHandoffs: %v", err)
	}
	if err := fw.WriteSample(telemetry.SampleRow{Node: "sta-0"}); err != nil {
		t.Fatalf("disabled sample log should be a no-op: %v", err)
	}
	if err := fw.WriteResult(telemetry.ResultRow{RunID: "r1", ThroughputMbps: 819.2, Timestamp: ts}); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(paths.Handoffs)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	var got []telemetry.HandoffRow
	for sc.Scan() {
		var r telemetry.HandoffRow
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 || got[1].From != "ap-0" || got[1].SimTime != 4 {
		t.Fatalf("unexpected handoffs: %+v", got)
	}

	b, err := os.ReadFile(paths.Results)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	var res telemetry.ResultRow
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.ThroughputMbps != 819.2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "samples.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("sample file should not exist")
	}
}

func TestFileWriterBadPath(t *testing.T) {
	_, err := NewFileWriter(FilePaths{Handoffs: filepath.Join(t.TempDir(), "missing", "h.jsonl")})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
