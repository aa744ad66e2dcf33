// Package versions keeps the ordered version list of a single document.
package versions

import (
	"fmt"
	"slices"
	"sync"

	"github.com/JaimeStill/docview/internal/documents"
)

// ErrValidation is returned for invalid or duplicate versions.
var ErrValidation = documents.ErrValidation

// Store holds one document's versions sorted ascending by version number.
// Entries are never removed individually; Load replaces the whole set.
type Store struct {
	mu      sync.RWMutex
	entries []documents.Version
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Load replaces the contents with vs, sorted ascending by version number.
// Server order is not trusted. Duplicate ids or numbers in vs are rejected and
// the store is left unchanged.
func (s *Store) Load(vs []documents.Version) error {
	sorted := slices.Clone(vs)
	slices.SortFunc(sorted, compareNumber)

	for i, v := range sorted {
		if err := v.Validate(); err != nil {
			return err
		}
		if i > 0 && sorted[i-1].VersionNumber == v.VersionNumber {
			return fmt.Errorf("%w: duplicate version number %d", ErrValidation, v.VersionNumber)
		}
	}

	seen := make(map[string]struct{}, len(sorted))
	for _, v := range sorted {
		if _, ok := seen[v.ID]; ok {
			return fmt.Errorf("%w: duplicate version id %q", ErrValidation, v.ID)
		}
		seen[v.ID] = struct{}{}
	}

	s.mu.Lock()
	s.entries = sorted
	s.mu.Unlock()
	return nil
}

// Append inserts v at its sorted position.
func (s *Store) Append(v documents.Version) error {
	if err := v.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ID == v.ID {
			return fmt.Errorf("%w: duplicate version id %q", ErrValidation, v.ID)
		}
		if e.VersionNumber == v.VersionNumber {
			return fmt.Errorf("%w: duplicate version number %d", ErrValidation, v.VersionNumber)
		}
	}

	i, _ := slices.BinarySearchFunc(s.entries, v, compareNumber)
	s.entries = slices.Insert(s.entries, i, v)
	return nil
}

// Latest returns the version with the highest number, or nil when empty.
func (s *Store) Latest() *documents.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil
	}
	v := s.entries[len(s.entries)-1]
	return &v
}

// Find returns the version with the given id, or nil.
func (s *Store) Find(id string) *documents.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			v := e
			return &v
		}
	}
	return nil
}

// List returns a copy of the versions in ascending order.
func (s *Store) List() []documents.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Len reports the number of stored versions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func compareNumber(a, b documents.Version) int {
	return a.VersionNumber - b.VersionNumber
}
