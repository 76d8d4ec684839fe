package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNX            = 64
	DefaultNT            = 100
	DefaultOmega         = 1.0
	DefaultDx            = 1.0
	DefaultDt            = 1.0
	DefaultSnapshotEvery = 0
	DefaultLogLevel      = "info"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name     string        `yaml:"name,omitempty"`
	Lattice  LatticeConfig `yaml:"lattice"`
	Time     TimeConfig    `yaml:"time"`
	Omega    float64       `yaml:"omega"`
	Energies []SiteEnergy  `yaml:"energies,omitempty"`
	Run      RunConfig     `yaml:"run"`
}

type LatticeConfig struct {
	NX int     `yaml:"nx"`
	Dx float64 `yaml:"dx"`
}

type TimeConfig struct {
	NT int     `yaml:"nt"`
	Dt float64 `yaml:"dt"`
}

// SiteEnergy assigns a binding energy to one lattice site. Later entries for
// the same site win.
type SiteEnergy struct {
	Site   int     `yaml:"site"`
	Energy float64 `yaml:"energy"`
}

type RunConfig struct {
	SnapshotEvery int    `yaml:"snapshot_every"`
	ValidateState bool   `yaml:"validate_state"`
	LogLevel      string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Lattice: LatticeConfig{NX: DefaultNX, Dx: DefaultDx},
		Time:    TimeConfig{NT: DefaultNT, Dt: DefaultDt},
		Omega:   DefaultOmega,
		Run: RunConfig{
			SnapshotEvery: DefaultSnapshotEvery,
			ValidateState: true,
			LogLevel:      DefaultLogLevel,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values the solver would reject. omega is left alone
// on purpose: stability is the caller's call.
func (c *Config) Validate() error {
	if c.Lattice.NX < 1 {
		return fmt.Errorf("%w: nx must be at least 1, got %d", ErrInvalidConfig, c.Lattice.NX)
	}
	if c.Time.NT < 0 {
		return fmt.Errorf("%w: nt must be non-negative, got %d", ErrInvalidConfig, c.Time.NT)
	}
	if c.Run.SnapshotEvery < 0 {
		return fmt.Errorf("%w: snapshot_every must be non-negative, got %d", ErrInvalidConfig, c.Run.SnapshotEvery)
	}
	for _, e := range c.Energies {
		if e.Site < 0 || e.Site >= c.Lattice.NX {
			return fmt.Errorf("%w: energy site %d outside [0, %d)", ErrInvalidConfig, e.Site, c.Lattice.NX)
		}
	}
	return nil
}

// EnergyProfile expands Energies into a dense per-site slice.
func (c *Config) EnergyProfile() []float64 {
	if c.Lattice.NX < 1 {
		return nil
	}
	profile := make([]float64, c.Lattice.NX)
	for _, e := range c.Energies {
		if e.Site >= 0 && e.Site < len(profile) {
			profile[e.Site] = e.Energy
		}
	}
	return profile
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Energies = append([]SiteEnergy(nil), c.Energies...)
	return &cp
}

// ParseSiteEnergy parses "site=energy", e.g. "12=1.5".
func ParseSiteEnergy(s string) (SiteEnergy, error) {
	siteStr, energyStr, ok := strings.Cut(s, "=")
	if !ok {
		return SiteEnergy{}, fmt.Errorf("%w: energy %q must be site=value", ErrInvalidConfig, s)
	}
	site, err := strconv.Atoi(strings.TrimSpace(siteStr))
	if err != nil {
		return SiteEnergy{}, fmt.Errorf("%w: energy site %q: %v", ErrInvalidConfig, siteStr, err)
	}
	energy, err := strconv.ParseFloat(strings.TrimSpace(energyStr), 64)
	if err != nil {
		return SiteEnergy{}, fmt.Errorf("%w: energy value %q: %v", ErrInvalidConfig, energyStr, err)
	}
	return SiteEnergy{Site: site, Energy: energy}, nil
}
