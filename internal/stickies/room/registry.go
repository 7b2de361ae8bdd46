package room

import (
	"context"
	"sync"

	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/blueplan/stickies-go/internal/stickies/monitoring"
)

// Registry holds the set of live sessions for one room. Broadcast iterates a
// point-in-time snapshot of the membership, so concurrent joins and leaves
// cannot skip or double-notify a session within one fan-out.
type Registry struct {
	sessions map[Session]struct{}
	mu       sync.RWMutex
	logger   *logx.Logger
	monitor  *monitoring.Monitor
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *logx.Logger, monitor *monitoring.Monitor) *Registry {
	return &Registry{
		sessions: make(map[Session]struct{}),
		logger:   logger,
		monitor:  monitor,
	}
}

// Register adds a session to the set.
func (r *Registry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

// Deregister removes a session if present. Removing an absent session is a
// no-op: a disconnect may race with a send-failure cleanup that already ran.
func (r *Registry) Deregister(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

// Count returns the current number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast delivers event to every registered session except exclude (nil
// excludes nobody). Delivery is best-effort per session: a failed send tears
// down only that session and the loop continues.
func (r *Registry) Broadcast(ctx context.Context, event interface{}, exclude Session) {
	r.mu.RLock()
	snapshot := make([]Session, 0, len(r.sessions))
	for s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		if s == exclude {
			continue
		}
		if err := s.Send(event); err != nil {
			r.logger.Warn(ctx, "dropping session after failed send",
				logx.KV("remote_addr", s.RemoteAddr()), logx.KV("error", err))
			r.monitor.SendError()
			r.Deregister(s)
			_ = s.Close()
			continue
		}
		r.monitor.BroadcastSent()
	}
}
