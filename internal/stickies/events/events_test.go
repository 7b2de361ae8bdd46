package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/blueplan/stickies-go/internal/stickies/note"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCreateNote(t *testing.T) {
	data := []byte(`{"type":"create_note","id":"n1","content":"hi","x":10,"y":20,"color":"#fff740","author":"u1"}`)

	ev, err := Decode(data)
	require.NoError(t, err)

	create, ok := ev.(CreateNote)
	require.True(t, ok)
	assert.Equal(t, "n1", create.ID)
	assert.Equal(t, "hi", create.Content)
	assert.Equal(t, 10.0, create.X)
	assert.Equal(t, 20.0, create.Y)
	assert.Equal(t, "#fff740", create.Color)
	assert.Equal(t, "u1", create.Author)
	assert.Equal(t, TypeCreateNote, create.EventType())
}

func TestDecodeUpdateNote(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"update_note","id":"n1","content":"new"}`))
	require.NoError(t, err)

	update, ok := ev.(UpdateNote)
	require.True(t, ok)
	assert.Equal(t, "n1", update.ID)
	assert.Equal(t, "new", update.Content)
}

func TestDecodeMoveNote(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"move_note","id":"n1","x":50,"y":60}`))
	require.NoError(t, err)

	move, ok := ev.(MoveNote)
	require.True(t, ok)
	assert.Equal(t, "n1", move.ID)
	assert.Equal(t, 50.0, move.X)
	assert.Equal(t, 60.0, move.Y)
}

func TestDecodeDeleteNote(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"delete_note","id":"n1"}`))
	require.NoError(t, err)

	del, ok := ev.(DeleteNote)
	require.True(t, ok)
	assert.Equal(t, "n1", del.ID)
}

func TestDecodeMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		field   string
	}{
		{"create without color", `{"type":"create_note","id":"n1","content":"hi","x":1,"y":2,"author":"u1"}`, "color"},
		{"create without id", `{"type":"create_note","content":"hi","x":1,"y":2,"color":"#fff","author":"u1"}`, "id"},
		{"update without content", `{"type":"update_note","id":"n1"}`, "content"},
		{"move without y", `{"type":"move_note","id":"n1","x":5}`, "y"},
		{"delete without id", `{"type":"delete_note"}`, "id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.payload))
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tc.field, decodeErr.Field)
		})
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	require.Error(t, err)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"set_cursor","id":"n1"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestDecodeZeroCoordinatesArePresent(t *testing.T) {
	// x/y of 0 must not be confused with a missing field
	ev, err := Decode([]byte(`{"type":"move_note","id":"n1","x":0,"y":0}`))
	require.NoError(t, err)

	move := ev.(MoveNote)
	assert.Equal(t, 0.0, move.X)
	assert.Equal(t, 0.0, move.Y)
}

func TestInitMarshalsEmptySnapshotAsArray(t *testing.T) {
	data, err := json.Marshal(NewInit(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"init","notes":[]}`, string(data))
}

func TestInitCarriesNotes(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	init := NewInit([]note.Note{{
		ID:        "n1",
		Content:   "hi",
		X:         10,
		Y:         20,
		Color:     "#fff740",
		Author:    "u1",
		CreatedAt: created,
		UpdatedAt: created,
	}})

	data, err := json.Marshal(init)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "init", decoded["type"])

	notes := decoded["notes"].([]interface{})
	require.Len(t, notes, 1)
	first := notes[0].(map[string]interface{})
	assert.Equal(t, "n1", first["id"])
	assert.Equal(t, "u1", first["author"])
}

func TestOutboundTags(t *testing.T) {
	data, err := json.Marshal(NoteMoved{Type: TypeNoteMoved, ID: "n1", X: 50, Y: 60})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"note_moved","id":"n1","x":50,"y":60}`, string(data))

	data, err = json.Marshal(NoteDeleted{Type: TypeNoteDeleted, ID: "n1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"note_deleted","id":"n1"}`, string(data))
}
