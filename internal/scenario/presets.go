package scenario

import (
	"strconv"

	"wlan-handoff-sim/internal/config"
)

// Default is the scenario used when neither a file nor a name is given.
const Default = "public-wifi"

func fptr(v float64) *float64 { return &v }

func nodes(prefix string, n int) []config.Node {
	out := make([]config.Node, n)
	for i := range out {
		out[i].Name = prefix + "-" + strconv.Itoa(i)
	}
	return out
}

func at(x, y float64) *config.Point { return &config.Point{X: x, Y: y} }

// BuiltIn returns the predefined scenarios.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"public-wifi": {
			Name: "public-wifi",
			Description: "Ten access points and two stations random-walking in a 100x100 area; " +
				"a saturation flow runs from ap-0 to sta-0.",
			Config: config.SimulationConfig{
				Name:         "public-wifi",
				Seed:         1,
				Positions:    []config.Point{{X: 0, Y: 0}, {X: 50, Y: 0}},
				AccessPoints: nodes("ap", 10),
				Stations:     nodes("sta", 2),
				Mobility: config.Mobility{
					Kind:       "random_walk",
					Interval:   1,
					SpeedMin:   2,
					SpeedMax:   4,
					MaxSegment: 1,
					Bounds:     config.Bounds{MinX: -50, MinY: -50, MaxX: 50, MaxY: 50},
				},
			},
		},
		"fixed-pair": {
			Name:        "fixed-pair",
			Description: "Two fixed access points 100 units apart and a stationary station 10 units from the first.",
			Config: config.SimulationConfig{
				Name: "fixed-pair",
				Seed: 1,
				AccessPoints: []config.Node{
					{Name: "ap-0", Position: at(0, 0)},
					{Name: "ap-1", Position: at(100, 0)},
				},
				Stations:    []config.Node{{Name: "sta-0", Position: at(10, 0)}},
				Mobility:    config.Mobility{Kind: "static"},
				Propagation: config.Propagation{Model: "range", MaxRange: 100},
				Association: config.Association{
					AssociationRange:    60,
					DisassociationRange: 70,
					Hysteresis:          fptr(0.05),
				},
			},
		},
		"corridor": {
			Name: "corridor",
			Description: "A station walks away from a single access point at constant speed " +
				"and is out of range for the last three seconds.",
			Config: config.SimulationConfig{
				Name:         "corridor",
				Seed:         1,
				AccessPoints: []config.Node{{Name: "ap-0", Position: at(0, 0)}},
				Stations: []config.Node{{
					Name:     "sta-0",
					Position: at(-10, 0),
					Mobility: &config.Mobility{
						Kind:     "constant_velocity",
						Interval: 0.1,
						Velocity: config.Point{X: 10},
					},
				}},
				Mobility:    config.Mobility{Kind: "static"},
				Propagation: config.Propagation{Model: "range", MaxRange: 100},
				Association: config.Association{
					AssociationRange:    60,
					DisassociationRange: 70,
				},
			},
		},
	}
}
