// Package note defines the persisted note record and the durable store
// consumed by the room coordinator.
package note

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Note is the sole persisted entity of the board.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Color     string    `json:"color"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrDuplicateID is returned by Insert when the note id already exists.
var ErrDuplicateID = errors.New("note id already exists")

// StoreError wraps any durable-store failure. The coordinator treats it as
// "do not broadcast".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("note store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// Store is key-addressed CRUD over note records.
//
// UpdateContent, UpdatePosition and Delete on an id that does not exist are
// no-ops, not errors; last-writer-wins with the store's commit order as the
// authority. ListAll returns notes ordered by created_at descending, id
// ascending on ties.
type Store interface {
	IsAvailable() bool
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) map[string]interface{}

	Insert(ctx context.Context, n Note) error
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	UpdatePosition(ctx context.Context, id string, x, y float64, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]Note, error)
}
