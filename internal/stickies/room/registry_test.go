package room

import (
	"context"
	"errors"
	"sync"
	"testing"

	logx "github.com/blueplan/stickies-go/internal/stickies/log"
	"github.com/blueplan/stickies-go/internal/stickies/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records delivered events and can be told to fail sends.
type fakeSession struct {
	mu       sync.Mutex
	received []interface{}
	failSend bool
	closed   bool
	addr     string
}

func newFakeSession(addr string) *fakeSession {
	return &fakeSession{addr: addr}
}

func (s *fakeSession) Send(event interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return errors.New("send failed")
	}
	s.received = append(s.received, event)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) RemoteAddr() string { return s.addr }

func (s *fakeSession) events() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, len(s.received))
	copy(out, s.received)
	return out
}

func (s *fakeSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestRegistry() *Registry {
	return NewRegistry(logx.NewStderrLogger(), monitoring.NewMonitor())
}

func TestRegistryRegisterAndCount(t *testing.T) {
	reg := newTestRegistry()
	a := newFakeSession("a")
	b := newFakeSession("b")

	reg.Register(a)
	reg.Register(b)
	assert.Equal(t, 2, reg.Count())

	reg.Deregister(a)
	assert.Equal(t, 1, reg.Count())

	// deregistering an absent session is a no-op
	reg.Deregister(a)
	assert.Equal(t, 1, reg.Count())
}

func TestRegistryBroadcastExcludesSender(t *testing.T) {
	reg := newTestRegistry()
	a := newFakeSession("a")
	b := newFakeSession("b")
	c := newFakeSession("c")
	reg.Register(a)
	reg.Register(b)
	reg.Register(c)

	reg.Broadcast(context.Background(), "event", a)

	assert.Empty(t, a.events())
	assert.Len(t, b.events(), 1)
	assert.Len(t, c.events(), 1)
}

func TestRegistryBroadcastNilExcludesNobody(t *testing.T) {
	reg := newTestRegistry()
	a := newFakeSession("a")
	b := newFakeSession("b")
	reg.Register(a)
	reg.Register(b)

	reg.Broadcast(context.Background(), "event", nil)

	assert.Len(t, a.events(), 1)
	assert.Len(t, b.events(), 1)
}

func TestRegistryBroadcastDropsFailedSession(t *testing.T) {
	reg := newTestRegistry()
	a := newFakeSession("a")
	b := newFakeSession("b")
	c := newFakeSession("c")
	b.failSend = true
	reg.Register(a)
	reg.Register(b)
	reg.Register(c)

	reg.Broadcast(context.Background(), "event", a)

	// c is still delivered despite b failing
	require.Len(t, c.events(), 1)
	assert.True(t, b.isClosed())
	assert.Equal(t, 2, reg.Count())

	// b receives nothing on the next broadcast either
	reg.Broadcast(context.Background(), "again", nil)
	assert.Len(t, a.events(), 1)
	assert.Len(t, c.events(), 2)
}

func TestRegistryConcurrentRegisterDuringBroadcast(t *testing.T) {
	reg := newTestRegistry()
	for i := 0; i < 16; i++ {
		reg.Register(newFakeSession("s"))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Broadcast(context.Background(), "event", nil)
		}()
		go func() {
			defer wg.Done()
			s := newFakeSession("x")
			reg.Register(s)
			reg.Deregister(s)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, reg.Count())
}
