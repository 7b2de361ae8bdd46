package note

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemStore is a mutex-guarded in-memory Store. It backs the server when no
// redis is configured and is the store used by the room tests.
type InMemStore struct {
	notes map[string]Note
	mu    sync.RWMutex
}

// NewInMemStore creates an empty in-memory store.
func NewInMemStore() *InMemStore {
	return &InMemStore{
		notes: make(map[string]Note),
	}
}

func (s *InMemStore) IsAvailable() bool { return true }

func (s *InMemStore) Ping(ctx context.Context) error { return nil }

func (s *InMemStore) HealthCheck(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"available": true,
		"type":      "inmem_note_store",
		"notes":     len(s.notes),
	}
}

func (s *InMemStore) Insert(ctx context.Context, n Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notes[n.ID]; exists {
		return &StoreError{Op: "insert", Err: ErrDuplicateID}
	}

	s.notes[n.ID] = n
	return nil
}

func (s *InMemStore) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notes[id]
	if !exists {
		return nil
	}

	n.Content = content
	n.UpdatedAt = updatedAt
	s.notes[id] = n
	return nil
}

func (s *InMemStore) UpdatePosition(ctx context.Context, id string, x, y float64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notes[id]
	if !exists {
		return nil
	}

	n.X = x
	n.Y = y
	n.UpdatedAt = updatedAt
	s.notes[id] = n
	return nil
}

func (s *InMemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notes, id)
	return nil
}

func (s *InMemStore) ListAll(ctx context.Context) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Note, 0, len(s.notes))
	for _, n := range s.notes {
		result = append(result, n)
	}
	SortSnapshot(result)
	return result, nil
}

// SortSnapshot orders notes most-recent-first; ties on created_at fall back
// to id so the snapshot order is reproducible.
func SortSnapshot(notes []Note) {
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID < notes[j].ID
	})
}
