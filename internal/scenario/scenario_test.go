package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wlan-handoff-sim/internal/config"
)

func TestBuiltInScenariosValidate(t *testing.T) {
	for _, name := range Names() {
		cfg, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) returned error: %v", name, err)
		}
		if cfg.Name != name {
			t.Errorf("expected name %q, got %q", name, cfg.Name)
		}
	}
}

func TestPublicWifiMatchesHotspotLayout(t *testing.T) {
	cfg, err := Lookup("public-wifi")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(cfg.AccessPoints) != 10 || len(cfg.Stations) != 2 {
		t.Fatalf("expected 10 APs and 2 stations, got %d/%d", len(cfg.AccessPoints), len(cfg.Stations))
	}
	if cfg.PayloadSize != 2048 || cfg.SimulationTime != 10 || cfg.WarmupTime() != 1 {
		t.Errorf("unexpected run parameters: %d %g %g", cfg.PayloadSize, cfg.SimulationTime, cfg.WarmupTime())
	}
	if cfg.Flow.Source != "ap-0" || cfg.Flow.Destination != "sta-0" || cfg.Flow.Port != 100 {
		t.Errorf("unexpected flow: %+v", cfg.Flow)
	}
	if cfg.Mobility.Kind != "random_walk" || cfg.Mobility.Bounds.MaxX != 50 {
		t.Errorf("unexpected mobility: %+v", cfg.Mobility)
	}
}

func TestLookupReturnsIndependentCopies(t *testing.T) {
	a, _ := Lookup("fixed-pair")
	b, _ := Lookup("fixed-pair")
	a.AccessPoints[0].Name = "changed"
	if b.AccessPoints[0].Name != "ap-0" {
		t.Error("scenario copies share state")
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("nowhere")
	if !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestResolvePrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	body := "name: from-file\naccess_points: [{position: {x: 0, y: 0}}]\nstations: [{position: {x: 5, y: 0}}]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Resolve(path, "corridor")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.Name != "from-file" {
		t.Errorf("expected from-file, got %q", cfg.Name)
	}

	cfg, err = Resolve("", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if cfg.Name != Default {
		t.Errorf("expected %q, got %q", Default, cfg.Name)
	}
}
