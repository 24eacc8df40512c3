package session

import (
	"sort"
	"sync"
)

// InMemoryStore is a volatile Store keeping snapshots in a process-local
// map. Safe for concurrent use; snapshots are stored and returned by value.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string]Snapshot)}
}

func (s *InMemoryStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = snap
	return nil
}

func (s *InMemoryStore) Load(id string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return Snapshot{}, &NotFoundError{ID: id}
	}
	return snap, nil
}

// List returns all snapshots, newest first.
func (s *InMemoryStore) List() ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(s.snapshots, id)
	return nil
}
