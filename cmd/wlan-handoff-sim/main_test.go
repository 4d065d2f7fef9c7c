package main

import (
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"wlan-handoff-sim/internal/sim"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"wlan-handoff-sim": main,
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("GREPTIMEDB_ENDPOINT", "")
			env.Setenv("NATS_URL", "")
			env.Setenv("CLICKHOUSE_ADDR", "")
			return nil
		},
	})
}

func resultsOf(tp ...float64) []sim.Result {
	out := make([]sim.Result, len(tp))
	for i, v := range tp {
		out[i].ThroughputMbps = v
	}
	return out
}
