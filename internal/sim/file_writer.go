package sim

import (
	"encoding/json"
	"os"

	"wlan-handoff-sim/internal/telemetry"
)

// FilePaths selects the JSONL files a FileWriter creates. Empty paths skip
// that row kind.
type FilePaths struct {
	Handoffs string
	Samples  string
	Results  string
}

// FileWriter writes rows to JSONL files.
type FileWriter struct {
	files      []*os.File
	handoffEnc *json.Encoder
	sampleEnc  *json.Encoder
	resultEnc  *json.Encoder
}

// NewFileWriter creates the files named in paths.
func NewFileWriter(paths FilePaths) (*FileWriter, error) {
	fw := &FileWriter{}
	open := func(path string) (*json.Encoder, error) {
		if path == "" {
			return nil, nil
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		fw.files = append(fw.files, f)
		return json.NewEncoder(f), nil
	}
	var err error
	if fw.handoffEnc, err = open(paths.Handoffs); err != nil {
		fw.Close()
		return nil, err
	}
	if fw.sampleEnc, err = open(paths.Samples); err != nil {
		fw.Close()
		return nil, err
	}
	if fw.resultEnc, err = open(paths.Results); err != nil {
		fw.Close()
		return nil, err
	}
	return fw, nil
}

// WriteHandoff logs a single transition, if enabled.
func (f *FileWriter) WriteHandoff(row telemetry.HandoffRow) error {
	if f.handoffEnc == nil {
		return nil
	}
	return f.handoffEnc.Encode(row)
}

// WriteHandoffs logs multiple transitions.
func (f *FileWriter) WriteHandoffs(rows []telemetry.HandoffRow) error {
	for _, r := range rows {
		if err := f.WriteHandoff(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSample logs a position sample, if enabled.
func (f *FileWriter) WriteSample(row telemetry.SampleRow) error {
	if f.sampleEnc == nil {
		return nil
	}
	return f.sampleEnc.Encode(row)
}

// WriteSamples logs multiple position samples.
func (f *FileWriter) WriteSamples(rows []telemetry.SampleRow) error {
	for _, r := range rows {
		if err := f.WriteSample(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteResult logs the run summary, if enabled.
func (f *FileWriter) WriteResult(row telemetry.ResultRow) error {
	if f.resultEnc == nil {
		return nil
	}
	return f.resultEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range f.files {
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	f.files = nil
	return err
}
