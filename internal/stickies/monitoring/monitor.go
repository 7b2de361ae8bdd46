// Package monitoring keeps lightweight counters for the board service.
package monitoring

import (
	"sync/atomic"
	"time"
)

// Monitor tracks session and event activity for the /monitor endpoints.
type Monitor struct {
	startTime time.Time

	sessionsActive int64
	sessionsTotal  int64
	eventsHandled  int64
	broadcastsSent int64
	storeErrors    int64
	decodeErrors   int64
	sendErrors     int64
	unknownEvents  int64
}

// NewMonitor creates a monitor with the clock started now.
func NewMonitor() *Monitor {
	return &Monitor{startTime: time.Now()}
}

// SessionOpened records a new live session.
func (m *Monitor) SessionOpened() {
	atomic.AddInt64(&m.sessionsActive, 1)
	atomic.AddInt64(&m.sessionsTotal, 1)
}

// SessionClosed records a departed session.
func (m *Monitor) SessionClosed() {
	atomic.AddInt64(&m.sessionsActive, -1)
}

// EventHandled records one successfully applied inbound event.
func (m *Monitor) EventHandled() {
	atomic.AddInt64(&m.eventsHandled, 1)
}

// BroadcastSent records one fan-out delivery to a single session.
func (m *Monitor) BroadcastSent() {
	atomic.AddInt64(&m.broadcastsSent, 1)
}

// StoreError records a durable-store failure.
func (m *Monitor) StoreError() {
	atomic.AddInt64(&m.storeErrors, 1)
}

// DecodeError records a malformed inbound frame.
func (m *Monitor) DecodeError() {
	atomic.AddInt64(&m.decodeErrors, 1)
}

// SendError records a failed outbound delivery.
func (m *Monitor) SendError() {
	atomic.AddInt64(&m.sendErrors, 1)
}

// UnknownEvent records a dropped frame with an unrecognized tag.
func (m *Monitor) UnknownEvent() {
	atomic.AddInt64(&m.unknownEvents, 1)
}

// SessionsActive returns the current number of live sessions.
func (m *Monitor) SessionsActive() int64 {
	return atomic.LoadInt64(&m.sessionsActive)
}

// GetMetrics returns a snapshot of all counters.
func (m *Monitor) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":  int64(time.Since(m.startTime).Seconds()),
		"sessions_active": atomic.LoadInt64(&m.sessionsActive),
		"sessions_total":  atomic.LoadInt64(&m.sessionsTotal),
		"events_handled":  atomic.LoadInt64(&m.eventsHandled),
		"broadcasts_sent": atomic.LoadInt64(&m.broadcastsSent),
		"store_errors":    atomic.LoadInt64(&m.storeErrors),
		"decode_errors":   atomic.LoadInt64(&m.decodeErrors),
		"send_errors":     atomic.LoadInt64(&m.sendErrors),
		"unknown_events":  atomic.LoadInt64(&m.unknownEvents),
	}
}
