// Package events defines the tagged wire messages exchanged with board
// clients over the websocket channel.
package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blueplan/stickies-go/internal/stickies/note"
)

type Type string

// Client -> server event tags.
const (
	TypeCreateNote Type = "create_note"
	TypeUpdateNote Type = "update_note"
	TypeMoveNote   Type = "move_note"
	TypeDeleteNote Type = "delete_note"
)

// Server -> client event tags.
const (
	TypeInit        Type = "init"
	TypeNoteCreated Type = "note_created"
	TypeNoteUpdated Type = "note_updated"
	TypeNoteMoved   Type = "note_moved"
	TypeNoteDeleted Type = "note_deleted"
)

// ErrUnknownType marks an event tag no handler exists for. The session is not
// torn down for it; the frame is dropped.
var ErrUnknownType = errors.New("unknown event type")

// DecodeError reports a malformed inbound frame: bad JSON or a missing
// required field for the tagged variant.
type DecodeError struct {
	EventType Type
	Field     string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: missing field %q", e.EventType, e.Field)
	}
	return fmt.Sprintf("decode event: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Inbound is one decoded client mutation request.
type Inbound interface {
	EventType() Type
}

// CreateNote requests insertion of a brand new note.
type CreateNote struct {
	ID      string
	Content string
	X       float64
	Y       float64
	Color   string
	Author  string
}

func (CreateNote) EventType() Type { return TypeCreateNote }

// UpdateNote requests a content change on an existing note.
type UpdateNote struct {
	ID      string
	Content string
}

func (UpdateNote) EventType() Type { return TypeUpdateNote }

// MoveNote requests a position change on an existing note.
type MoveNote struct {
	ID string
	X  float64
	Y  float64
}

func (MoveNote) EventType() Type { return TypeMoveNote }

// DeleteNote requests removal of a note.
type DeleteNote struct {
	ID string
}

func (DeleteNote) EventType() Type { return TypeDeleteNote }

// envelope carries every possible field as a pointer so required-field
// presence can be checked per variant.
type envelope struct {
	Type    Type     `json:"type"`
	ID      *string  `json:"id"`
	Content *string  `json:"content"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Color   *string  `json:"color"`
	Author  *string  `json:"author"`
}

// Decode parses one inbound frame into its typed variant. It returns a
// *DecodeError for malformed frames and ErrUnknownType for tags outside the
// protocol.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	switch env.Type {
	case TypeCreateNote:
		if field, ok := env.require("id", "content", "x", "y", "color", "author"); !ok {
			return nil, &DecodeError{EventType: env.Type, Field: field}
		}
		return CreateNote{
			ID:      *env.ID,
			Content: *env.Content,
			X:       *env.X,
			Y:       *env.Y,
			Color:   *env.Color,
			Author:  *env.Author,
		}, nil
	case TypeUpdateNote:
		if field, ok := env.require("id", "content"); !ok {
			return nil, &DecodeError{EventType: env.Type, Field: field}
		}
		return UpdateNote{ID: *env.ID, Content: *env.Content}, nil
	case TypeMoveNote:
		if field, ok := env.require("id", "x", "y"); !ok {
			return nil, &DecodeError{EventType: env.Type, Field: field}
		}
		return MoveNote{ID: *env.ID, X: *env.X, Y: *env.Y}, nil
	case TypeDeleteNote:
		if field, ok := env.require("id"); !ok {
			return nil, &DecodeError{EventType: env.Type, Field: field}
		}
		return DeleteNote{ID: *env.ID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// require reports the first missing field among the named ones.
func (e *envelope) require(fields ...string) (string, bool) {
	for _, f := range fields {
		var present bool
		switch f {
		case "id":
			present = e.ID != nil
		case "content":
			present = e.Content != nil
		case "x":
			present = e.X != nil
		case "y":
			present = e.Y != nil
		case "color":
			present = e.Color != nil
		case "author":
			present = e.Author != nil
		}
		if !present {
			return f, false
		}
	}
	return "", true
}

// Init is the one-time full snapshot sent to a session right after it joins.
type Init struct {
	Type  Type        `json:"type"`
	Notes []note.Note `json:"notes"`
}

// NewInit builds the snapshot event. A nil slice is sent as an empty array so
// clients always see "notes": [].
func NewInit(notes []note.Note) Init {
	if notes == nil {
		notes = []note.Note{}
	}
	return Init{Type: TypeInit, Notes: notes}
}

// NoteCreated confirms a create_note to every other session.
type NoteCreated struct {
	Type    Type    `json:"type"`
	ID      string  `json:"id"`
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color"`
	Author  string  `json:"author"`
}

// NoteUpdated confirms an update_note to every other session.
type NoteUpdated struct {
	Type    Type   `json:"type"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

// NoteMoved confirms a move_note to every other session.
type NoteMoved struct {
	Type Type    `json:"type"`
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// NoteDeleted confirms a delete_note to every other session.
type NoteDeleted struct {
	Type Type   `json:"type"`
	ID   string `json:"id"`
}
