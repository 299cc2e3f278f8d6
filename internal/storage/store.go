// Package storage keeps finished runs on disk and training history in SQLite.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/roadsim/internal/brain"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	brainFile    = "brain.json"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Preset      string             `json:"preset,omitempty"`
	Mode        string             `json:"mode"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Frames      int                `json:"frames"`
	Population  int                `json:"population"`
	Generations int                `json:"generations,omitempty"`
	Distance    float64            `json:"distance"`
	Damaged     int                `json:"damaged"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	HasBrain    bool               `json:"has_brain"`
}

// NewID allocates a run ID ahead of Save, for runs that record history
// while they are still going.
func NewID(kind string) string {
	if kind == "" {
		kind = "run"
	}
	return fmt.Sprintf("%s_%d", kind, time.Now().UnixNano())
}

// Save writes a run directory holding the metadata and, when net is not
// nil, the network. A run ID is generated unless meta already has one.
func (s *Store) Save(meta *RunMetadata, net *brain.Network) (string, error) {
	if meta.Kind == "" {
		meta.Kind = "run"
	}
	if meta.ID == "" {
		meta.ID = NewID(meta.Kind)
	}
	runID := meta.ID
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.Timestamp = time.Now()
	meta.HasBrain = net != nil

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if net != nil {
		if err := brain.Save(filepath.Join(runDir, brainFile), net); err != nil {
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

// List returns every readable run, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadBrain(runID string) (*brain.Network, error) {
	path := filepath.Join(s.baseDir, runID, brainFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s has no brain", ErrRunNotFound, runID)
	}
	return brain.Load(path)
}

// Latest returns the newest run of the given kind that saved a brain.
func (s *Store) Latest(kind string) (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Kind == kind && runs[i].HasBrain {
			return &runs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no %s run with a brain", ErrRunNotFound, kind)
}
