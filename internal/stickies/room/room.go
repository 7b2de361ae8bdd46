// Package room implements the session coordinator for the shared board: it
// registers live connections, applies inbound events against the durable note
// store, and fans out confirmations to every other session.
package room

import (
	"context"
	"errors"
	"time"

	"github.com/blueplan/stickies-go/internal/stickies/events"
	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/blueplan/stickies-go/internal/stickies/monitoring"
	"github.com/blueplan/stickies-go/internal/stickies/note"
)

// Room coordinates all sessions of one board. Only one room is instantiated,
// but its identity is an explicit key so the design extends without rework.
type Room struct {
	name     string
	store    note.Store
	registry *Registry
	logger   *logx.Logger
	monitor  *monitoring.Monitor
	now      func() time.Time
}

// New creates a room backed by the given note store.
func New(name string, store note.Store, logger *logx.Logger, monitor *monitoring.Monitor) *Room {
	return &Room{
		name:     name,
		store:    store,
		registry: NewRegistry(logger, monitor),
		logger:   logger,
		monitor:  monitor,
		now:      time.Now,
	}
}

// Name returns the room key.
func (r *Room) Name() string { return r.name }

// Registry exposes the session registry, mainly for monitoring.
func (r *Room) Registry() *Registry { return r.registry }

// Join registers the session and sends it the one-time init snapshot. If the
// snapshot query or delivery fails the session is torn down again and the
// error returned; peers are unaffected.
func (r *Room) Join(ctx context.Context, s Session) error {
	r.registry.Register(s)
	r.monitor.SessionOpened()

	notes, err := r.store.ListAll(ctx)
	if err != nil {
		r.logger.Error(ctx, "init snapshot query failed",
			logx.KV("room", r.name), logx.KV("error", err))
		r.monitor.StoreError()
		r.dropSession(s)
		return err
	}

	if err := s.Send(events.NewInit(notes)); err != nil {
		r.logger.Warn(ctx, "init snapshot delivery failed",
			logx.KV("room", r.name), logx.KV("error", err))
		r.monitor.SendError()
		r.dropSession(s)
		return err
	}

	r.logger.Info(ctx, "session joined",
		logx.KV("room", r.name),
		logx.KV("remote_addr", s.RemoteAddr()),
		logx.KV("sessions", r.registry.Count()))
	return nil
}

// Leave deregisters the session. No broadcast: presence is out of scope.
func (r *Room) Leave(ctx context.Context, s Session) {
	r.registry.Deregister(s)
	r.monitor.SessionClosed()
	r.logger.Info(ctx, "session left",
		logx.KV("room", r.name),
		logx.KV("remote_addr", s.RemoteAddr()),
		logx.KV("sessions", r.registry.Count()))
}

// dropSession undoes a Join that could not complete.
func (r *Room) dropSession(s Session) {
	r.registry.Deregister(s)
	r.monitor.SessionClosed()
	_ = s.Close()
}

// HandleFrame processes one inbound frame from sender: decode, apply exactly
// one store operation, then broadcast the confirmation to every session
// except the sender. A store failure drops the event without a broadcast and
// without an acknowledgment to the sender.
func (r *Room) HandleFrame(ctx context.Context, sender Session, data []byte) {
	ev, err := events.Decode(data)
	if err != nil {
		if errors.Is(err, events.ErrUnknownType) {
			r.logger.Debug(ctx, "ignoring unrecognized event",
				logx.KV("room", r.name), logx.KV("error", err))
			r.monitor.UnknownEvent()
			return
		}
		r.logger.Warn(ctx, "dropping malformed frame",
			logx.KV("room", r.name), logx.KV("error", err))
		r.monitor.DecodeError()
		return
	}

	now := r.now()

	switch ev := ev.(type) {
	case events.CreateNote:
		n := note.Note{
			ID:        ev.ID,
			Content:   ev.Content,
			X:         ev.X,
			Y:         ev.Y,
			Color:     ev.Color,
			Author:    ev.Author,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.store.Insert(ctx, n); err != nil {
			r.storeFailed(ctx, ev.EventType(), ev.ID, err)
			return
		}
		r.broadcast(ctx, events.NoteCreated{
			Type:    events.TypeNoteCreated,
			ID:      ev.ID,
			Content: ev.Content,
			X:       ev.X,
			Y:       ev.Y,
			Color:   ev.Color,
			Author:  ev.Author,
		}, sender)

	case events.UpdateNote:
		if err := r.store.UpdateContent(ctx, ev.ID, ev.Content, now); err != nil {
			r.storeFailed(ctx, ev.EventType(), ev.ID, err)
			return
		}
		r.broadcast(ctx, events.NoteUpdated{
			Type:    events.TypeNoteUpdated,
			ID:      ev.ID,
			Content: ev.Content,
		}, sender)

	case events.MoveNote:
		if err := r.store.UpdatePosition(ctx, ev.ID, ev.X, ev.Y, now); err != nil {
			r.storeFailed(ctx, ev.EventType(), ev.ID, err)
			return
		}
		r.broadcast(ctx, events.NoteMoved{
			Type: events.TypeNoteMoved,
			ID:   ev.ID,
			X:    ev.X,
			Y:    ev.Y,
		}, sender)

	case events.DeleteNote:
		if err := r.store.Delete(ctx, ev.ID); err != nil {
			r.storeFailed(ctx, ev.EventType(), ev.ID, err)
			return
		}
		r.broadcast(ctx, events.NoteDeleted{
			Type: events.TypeNoteDeleted,
			ID:   ev.ID,
		}, sender)
	}
}

// broadcast sends a confirmation downstream of a successful durable write.
func (r *Room) broadcast(ctx context.Context, event interface{}, sender Session) {
	r.monitor.EventHandled()
	r.registry.Broadcast(ctx, event, sender)
}

// storeFailed logs a dropped event. The sender is not notified; the failure
// is visible through logs and the monitor counters only.
func (r *Room) storeFailed(ctx context.Context, eventType events.Type, id string, err error) {
	r.logger.Error(ctx, "store operation failed, event dropped",
		logx.KV("room", r.name),
		logx.KV("event_type", eventType),
		logx.KV("note_id", id),
		logx.KV("error", err))
	r.monitor.StoreError()
}
