package room

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// Session is one live client connection as the coordinator sees it. Send must
// not block room dispatch; a send failure is treated as a disconnect.
type Session interface {
	Send(event interface{}) error
	Close() error
	RemoteAddr() string
}

// ErrSessionClosed is returned by Send after the session shut down.
var ErrSessionClosed = errors.New("session closed")

// ErrSendBufferFull is returned by Send when the outbound queue is saturated;
// the registry treats it like any other send failure.
var ErrSendBufferFull = errors.New("session send buffer full")

// WSSession adapts a gorilla websocket connection to the Session interface.
// Outbound events go through a buffered channel drained by a single writer
// goroutine, so Send never blocks on the network.
type WSSession struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewWSSession wraps an upgraded connection. The caller must run WritePump in
// its own goroutine.
func NewWSSession(conn *websocket.Conn, sendBufferSize int) *WSSession {
	if sendBufferSize <= 0 {
		sendBufferSize = 64
	}
	return &WSSession{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send queues one event for delivery. It fails immediately when the session
// is closed or the buffer is full.
func (s *WSSession) Send(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSendBufferFull
	}
}

// WritePump drains the outbound queue onto the wire. It returns when the
// session closes or a write fails; either way the connection is torn down.
func (s *WSSession) WritePump() {
	defer s.Close()
	for {
		select {
		case data := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// ReadMessage blocks for the next inbound frame. Frames arrive in order; the
// returned error means the connection is gone.
func (s *WSSession) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Close shuts the session down exactly once.
func (s *WSSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
	return nil
}

// RemoteAddr identifies the peer for logging.
func (s *WSSession) RemoteAddr() string {
	return s.conn.RemoteAddr().String()
}
