package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Conn is one live client connection, such as a websocket.
type Conn interface {
	ID() string
	Send(event Event) error
}

// Event is pushed to connected users.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventNewMessage  = "new_message"
	EventMessageSent = "message_sent"
	EventError       = "error"
)

var ErrRegistryStopped = errors.New("connection registry stopped")

// Registry tracks which connection each user is reachable on. All state is
// owned by the goroutine in Run; the other methods send it requests.
type Registry struct {
	reqs chan func(map[uuid.UUID]Conn)
	done chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		reqs: make(chan func(map[uuid.UUID]Conn)),
		done: make(chan struct{}),
	}
}

// Run serves requests until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	defer close(r.done)
	conns := make(map[uuid.UUID]Conn)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.reqs:
			fn(conns)
		}
	}
}

func (r *Registry) do(fn func(map[uuid.UUID]Conn)) error {
	finished := make(chan struct{})
	select {
	case r.reqs <- func(m map[uuid.UUID]Conn) {
		fn(m)
		close(finished)
	}:
	case <-r.done:
		return ErrRegistryStopped
	}
	<-finished
	return nil
}

// Connect makes c the user's current connection, replacing any older one.
func (r *Registry) Connect(userID uuid.UUID, c Conn) error {
	return r.do(func(m map[uuid.UUID]Conn) {
		m[userID] = c
	})
}

// Disconnect removes the user's entry only if it still points at connID,
// so a stale connection closing does not evict a newer one.
func (r *Registry) Disconnect(userID uuid.UUID, connID string) error {
	return r.do(func(m map[uuid.UUID]Conn) {
		if cur, ok := m[userID]; ok && cur.ID() == connID {
			delete(m, userID)
		}
	})
}

func (r *Registry) Lookup(userID uuid.UUID) (Conn, bool) {
	var (
		c  Conn
		ok bool
	)
	if err := r.do(func(m map[uuid.UUID]Conn) {
		c, ok = m[userID]
	}); err != nil {
		return nil, false
	}
	return c, ok
}

// Online returns the number of connected users.
func (r *Registry) Online() int {
	n := 0
	_ = r.do(func(m map[uuid.UUID]Conn) {
		n = len(m)
	})
	return n
}
