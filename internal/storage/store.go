package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/sim"
)

const (
	metadataFile    = "metadata.json"
	occupationsFile = "occupations.csv"
	snapshotsFile   = "snapshots.csv"
)

var (
	ErrNoResult   = errors.New("storage: result has no occupations")
	ErrBadProfile = errors.New("storage: malformed occupations file")
)

// Store archives finished runs under baseDir, one directory per run. Only
// results are written; solver state cannot be restored from a run.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string              `json:"id"`
	Name      string              `json:"name,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	NX        int                 `json:"nx"`
	NT        int                 `json:"nt"`
	Omega     float64             `json:"omega"`
	Dx        float64             `json:"dx"`
	Dt        float64             `json:"dt"`
	Energies  []config.SiteEnergy `json:"energies,omitempty"`
	Steps     int                 `json:"steps"`
	ElapsedMS float64             `json:"elapsed_ms"`
	Snapshots int                 `json:"snapshots"`
	Metrics   map[string]float64  `json:"metrics"`
}

// Profile is the per-site final state of a run.
type Profile struct {
	Occupations []float64 `json:"occupations"`
	Density     []float64 `json:"density"`
	Velocity    []float64 `json:"velocity"`
	Energies    []float64 `json:"energies"`
}

func (s *Store) Save(result *sim.Result) (string, error) {
	if result == nil || len(result.Occupations) == 0 {
		return "", ErrNoResult
	}
	cfg := result.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	name := cfg.Name
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      cfg.Name,
		Timestamp: now,
		NX:        cfg.Lattice.NX,
		NT:        cfg.Time.NT,
		Omega:     cfg.Omega,
		Dx:        cfg.Lattice.Dx,
		Dt:        cfg.Time.Dt,
		Energies:  cfg.Energies,
		Steps:     result.StepsTaken,
		ElapsedMS: float64(result.Elapsed.Microseconds()) / 1000,
		Snapshots: len(result.Snapshots),
		Metrics:   result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeProfile(filepath.Join(runDir, occupationsFile), result); err != nil {
		return "", err
	}
	if len(result.Snapshots) > 0 {
		if err := writeSnapshots(filepath.Join(runDir, snapshotsFile), result.Snapshots); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}

func writeProfile(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"site", "occupation", "density", "velocity", "epsilon"}); err != nil {
		return err
	}
	for i, occ := range result.Occupations {
		row := []string{
			strconv.Itoa(i),
			formatFloat(occ),
			formatFloat(at(result.Density, i)),
			formatFloat(at(result.Velocity, i)),
			formatFloat(at(result.Energies, i)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeSnapshots(path string, snaps []sim.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"step"}
	for i := range snaps[0].Occupations {
		header = append(header, fmt.Sprintf("s%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, snap := range snaps {
		row := []string{strconv.Itoa(snap.Step)}
		for _, v := range snap.Occupations {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadProfile(runID string) (*Profile, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, occupationsFile))
	if err != nil {
		return nil, err
	}

	p := &Profile{}
	for i, record := range records {
		if i == 0 {
			continue
		}
		if len(record) != 5 {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrBadProfile, i, len(record))
		}
		vals := make([]float64, 4)
		for j := range vals {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrBadProfile, i, err)
			}
			vals[j] = v
		}
		p.Occupations = append(p.Occupations, vals[0])
		p.Density = append(p.Density, vals[1])
		p.Velocity = append(p.Velocity, vals[2])
		p.Energies = append(p.Energies, vals[3])
	}
	return p, nil
}

// LoadSnapshots returns the stored snapshots, or none if the run kept none.
func (s *Store) LoadSnapshots(runID string) ([]sim.Snapshot, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, snapshotsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []sim.Snapshot{}, nil
		}
		return nil, err
	}

	snaps := make([]sim.Snapshot, 0, len(records))
	for i, record := range records {
		if i == 0 || len(record) == 0 {
			continue
		}
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot row %d: %v", ErrBadProfile, i, err)
		}
		occ := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: snapshot row %d: %v", ErrBadProfile, i, err)
			}
			occ = append(occ, v)
		}
		snaps = append(snaps, sim.Snapshot{Step: step, Occupations: occ})
	}
	return snaps, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
