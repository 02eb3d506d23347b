package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []Event
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func runRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(cancel)
	return r
}

func TestRegistry_ConnectLookup(t *testing.T) {
	r := runRegistry(t)
	user := uuid.New()

	_, ok := r.Lookup(user)
	assert.False(t, ok)

	c := &fakeConn{id: "a"}
	require.NoError(t, r.Connect(user, c))
	got, ok := r.Lookup(user)
	require.True(t, ok)
	assert.Equal(t, "a", got.ID())
	assert.Equal(t, 1, r.Online())

	require.NoError(t, r.Disconnect(user, "a"))
	_, ok = r.Lookup(user)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Online())
}

func TestRegistry_StaleDisconnectKeepsNewer(t *testing.T) {
	r := runRegistry(t)
	user := uuid.New()

	require.NoError(t, r.Connect(user, &fakeConn{id: "old"}))
	require.NoError(t, r.Connect(user, &fakeConn{id: "new"}))
	require.NoError(t, r.Disconnect(user, "old"))

	got, ok := r.Lookup(user)
	require.True(t, ok)
	assert.Equal(t, "new", got.ID())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := runRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := uuid.New()
			c := &fakeConn{id: user.String()}
			assert.NoError(t, r.Connect(user, c))
			_, ok := r.Lookup(user)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Online())
}

func TestRegistry_Stopped(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("registry did not stop")
	}

	assert.ErrorIs(t, r.Connect(uuid.New(), &fakeConn{id: "x"}), ErrRegistryStopped)
	_, ok := r.Lookup(uuid.New())
	assert.False(t, ok)
}
