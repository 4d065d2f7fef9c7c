// Package dashboard renders Grafana dashboards over the GreptimeDB tables
// written by the simulator.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"wlan-handoff-sim/internal/telemetry"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// DatasourceEnv names the variable holding the Grafana datasource UID of
// the GreptimeDB instance.
const DatasourceEnv = "GREPTIMEDB_DATASOURCE_UID"

type tables struct {
	Handoffs string
	Samples  string
	Results  string
}

// Render writes every dashboard template to outDir and returns the paths
// written.
func Render(outDir string) ([]string, error) {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	t, err := template.New("dashboards").Funcs(funcMap).ParseFS(templates, "templates/*.json.tmpl")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	data := tables{
		Handoffs: telemetry.HandoffTableName,
		Samples:  telemetry.SampleTableName,
		Results:  telemetry.ResultTableName,
	}

	var written []string
	for _, tpl := range t.Templates() {
		name := tpl.Name()
		if !strings.HasSuffix(name, ".tmpl") {
			continue
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return written, err
		}
		if err := tpl.Execute(f, data); err != nil {
			f.Close()
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return written, err
		}
		written = append(written, outPath)
	}
	return written, nil
}
