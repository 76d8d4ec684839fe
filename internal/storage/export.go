package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/lbm1d/internal/sim"
)

type ExportData struct {
	Meta      *RunMetadata   `json:"meta"`
	Profile   *Profile       `json:"profile"`
	Snapshots []sim.Snapshot `json:"snapshots"`
}

// ExportJSON writes metadata, the final profile and snapshots of a run as
// one indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	profile, err := s.LoadProfile(runID)
	if err != nil {
		return err
	}
	snaps, err := s.LoadSnapshots(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: meta, Profile: profile, Snapshots: snaps})
}

// ExportCSV copies the stored per-site profile to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(filepath.Join(s.baseDir, runID, occupationsFile))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
