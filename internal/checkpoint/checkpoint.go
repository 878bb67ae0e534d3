// Package checkpoint persists completed analysis runs as JSON files,
// one per run ID. A run is written exactly once; re-saving under the
// same ID fails unless the checkpoint is cleared first.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrExists is returned by Save when a checkpoint for the run ID
// already exists.
var ErrExists = errors.New("checkpoint: run already exists")

// ErrNotFound is returned by Load and Clear for unknown run IDs.
var ErrNotFound = errors.New("checkpoint: run not found")

// Store writes checkpoints under a single directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates the checkpoint directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("checkpoint: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}

// Exists reports whether a checkpoint for runID is on disk.
func (s *Store) Exists(runID string) bool {
	_, err := os.Stat(s.path(runID))
	return err == nil
}

// Save writes v as the checkpoint for runID. Write-once: it fails with
// ErrExists if the run was already saved.
func (s *Store) Save(runID string, v any) error {
	if err := validateRunID(runID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(runID)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, runID)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal %s: %w", runID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", runID, err)
	}
	return nil
}

// Load reads the checkpoint for runID into v.
func (s *Store) Load(runID string, v any) error {
	if err := validateRunID(runID); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return fmt.Errorf("checkpoint: read %s: %w", runID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("checkpoint: decode %s: %w", runID, err)
	}
	return nil
}

// List returns the saved run IDs in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Clear removes the checkpoint for runID, allowing a fresh Save.
func (s *Store) Clear(runID string) error {
	if err := validateRunID(runID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(runID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return fmt.Errorf("checkpoint: remove %s: %w", runID, err)
	}
	return nil
}

func validateRunID(runID string) error {
	if runID == "" {
		return errors.New("checkpoint: run id is required")
	}
	if strings.ContainsAny(runID, "/\\") || runID == "." || runID == ".." {
		return fmt.Errorf("checkpoint: invalid run id %q", runID)
	}
	return nil
}
