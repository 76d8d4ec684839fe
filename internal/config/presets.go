package config

import "sort"

var Presets = map[string]*Config{
	"uniform": {
		Name:    "uniform",
		Lattice: LatticeConfig{NX: 64, Dx: 1},
		Time:    TimeConfig{NT: 50, Dt: 1},
		Omega:   1.0,
		Run:     RunConfig{ValidateState: true, LogLevel: DefaultLogLevel},
	},
	"trap": {
		Name:     "trap",
		Lattice:  LatticeConfig{NX: 64, Dx: 1},
		Time:     TimeConfig{NT: 60, Dt: 1},
		Omega:    1.0,
		Energies: []SiteEnergy{{Site: 32, Energy: 2.0}},
		Run:      RunConfig{SnapshotEvery: 10, ValidateState: true, LogLevel: DefaultLogLevel},
	},
	"double-well": {
		Name:     "double-well",
		Lattice:  LatticeConfig{NX: 80, Dx: 1},
		Time:     TimeConfig{NT: 80, Dt: 1},
		Omega:    1.0,
		Energies: []SiteEnergy{{Site: 20, Energy: 1.5}, {Site: 60, Energy: 1.5}},
		Run:      RunConfig{SnapshotEvery: 10, ValidateState: true, LogLevel: DefaultLogLevel},
	},
	"barrier": {
		Name:     "barrier",
		Lattice:  LatticeConfig{NX: 64, Dx: 1},
		Time:     TimeConfig{NT: 60, Dt: 1},
		Omega:    1.0,
		Energies: []SiteEnergy{{Site: 31, Energy: -3.0}, {Site: 32, Energy: -3.0}},
		Run:      RunConfig{SnapshotEvery: 10, ValidateState: true, LogLevel: DefaultLogLevel},
	},
	"underrelaxed": {
		Name:     "underrelaxed",
		Lattice:  LatticeConfig{NX: 64, Dx: 1},
		Time:     TimeConfig{NT: 120, Dt: 1},
		Omega:    0.6,
		Energies: []SiteEnergy{{Site: 32, Energy: 1.0}},
		Run:      RunConfig{SnapshotEvery: 20, ValidateState: true, LogLevel: DefaultLogLevel},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
