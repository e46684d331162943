// Package layout persists named layout snapshots.
//
// User-saved versions live together under one key of a
// repository.KeyValueStore as a JSON object keyed by snapshot id. The
// ORIGINAL baseline is held in memory only and is never written to the
// store; it becomes durable only when saved as a new version.
package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"transitmap/internal/domain"
	"transitmap/internal/repository"
)

// DefaultVersionsKey is the store key the version set is saved under
const DefaultVersionsKey = "cytoscapeUnifiedLayoutVersions"

// VersionSet maps snapshot ids to snapshots, the persisted layout format
type VersionSet map[domain.SnapshotID]domain.Snapshot

// Store manages the ORIGINAL snapshot and the persisted version set.
// Every value handed out is a copy.
type Store struct {
	kv       repository.KeyValueStore
	key      string
	original domain.Snapshot
}

// NewStore creates a snapshot store over kv. An empty key selects DefaultVersionsKey.
func NewStore(kv repository.KeyValueStore, key string) *Store {
	if key == "" {
		key = DefaultVersionsKey
	}
	return &Store{kv: kv, key: key}
}

// Key returns the store key the version set is written under
func (s *Store) Key() string {
	return s.key
}

// HasOriginal reports whether a non-empty ORIGINAL snapshot has been captured
func (s *Store) HasOriginal() bool {
	return len(s.original) > 0
}

// Original returns a copy of the ORIGINAL snapshot
func (s *Store) Original() domain.Snapshot {
	return s.original.Clone()
}

// SetOriginal replaces the in-memory ORIGINAL snapshot
func (s *Store) SetOriginal(snap domain.Snapshot) {
	s.original = snap.Clone()
}

// ClearOriginal empties ORIGINAL so the next load re-captures it
func (s *Store) ClearOriginal() {
	s.original = nil
}

// Versions reads the whole persisted version set
func (s *Store) Versions(ctx context.Context) (VersionSet, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		return VersionSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read versions: %w", err)
	}
	if len(raw) == 0 {
		return VersionSet{}, nil
	}

	var set VersionSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decode versions: %w", err)
	}
	if set == nil {
		set = VersionSet{}
	}
	return set, nil
}

// Get returns the saved snapshot for id, or a SnapshotNotFoundError
func (s *Store) Get(ctx context.Context, id domain.SnapshotID) (domain.Snapshot, error) {
	set, err := s.Versions(ctx)
	if err != nil {
		return nil, err
	}
	snap, ok := set[id]
	if !ok {
		return nil, &domain.SnapshotNotFoundError{ID: id}
	}
	return snap.Clone(), nil
}

// Put writes snap under id, replacing any earlier snapshot with that id.
// ORIGINAL cannot be written.
func (s *Store) Put(ctx context.Context, id domain.SnapshotID, snap domain.Snapshot) error {
	if id.IsOriginal() {
		return fmt.Errorf("the original layout is not persisted")
	}
	set, err := s.Versions(ctx)
	if err != nil {
		return err
	}
	set[id] = snap.Clone()
	return s.write(ctx, set)
}

// List returns saved version ids newest first
func (s *Store) List(ctx context.Context) ([]domain.SnapshotID, error) {
	set, err := s.Versions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.SnapshotID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids, nil
}

// DeleteAll removes every saved version and forgets ORIGINAL
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	s.ClearOriginal()
	return nil
}

func (s *Store) write(ctx context.Context, set VersionSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode versions: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("write versions: %w", err)
	}
	return nil
}
