// Package session manages the persisted broker session and its lifecycle.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"neo-trader/internal/models"
)

// State classifies what a load of the session record produced. Absent
// covers a missing file, undecodable JSON, and a record without a token:
// all three mean a full login is required, so they are not distinguished.
type State int

const (
	StateAbsent State = iota
	StateValid
)

func (s State) String() string {
	if s == StateValid {
		return "valid"
	}
	return "absent"
}

// Store persists the session record to a single JSON file. Writes are
// atomic (temp file then rename) so a crash mid-write never leaves a
// corrupt record visible. There is no cross-process lock; concurrent
// writers race and the last rename wins.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the session record. The record is never partially usable:
// anything short of well-formed JSON with a non-empty token reads as
// StateAbsent with a nil record.
func (s *Store) Load() (*models.SessionRecord, State) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, StateAbsent
	}

	var rec models.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, StateAbsent
	}
	if !rec.HasToken() {
		return nil, StateAbsent
	}
	return &rec, StateValid
}

// Save overwrites the record. Each authentication replaces the whole
// file; records are never merged.
func (s *Store) Save(rec *models.SessionRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Remove deletes the persisted record, used on explicit logout.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
