// Package broadcast fans simulation events out to streaming subscribers.
package broadcast

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConnState is the lifecycle of a subscriber transport
type ConnState int32

const (
	StateOpen ConnState = iota
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is a subscriber transport. Send must honour ctx cancellation and
// deadline. Transports that also implement io.Closer are closed when the
// registry drops them.
type Conn interface {
	State() ConnState
	Send(ctx context.Context, msg []byte) error
}

// DefaultSendTimeout bounds a single delivery to one subscriber
const DefaultSendTimeout = time.Second

// Registry tracks the live set of subscribers
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]Conn
	sendTimeout time.Duration
}

// NewRegistry creates an empty registry. A non-positive sendTimeout uses
// DefaultSendTimeout.
func NewRegistry(sendTimeout time.Duration) *Registry {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Registry{
		conns:       make(map[string]Conn),
		sendTimeout: sendTimeout,
	}
}

// Add registers a connection and returns its identifier
func (r *Registry) Add(conn Conn) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()

	return id
}

// Remove deregisters a connection. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Len returns the number of registered subscribers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast delivers msg to every subscriber registered when the call
// starts. Sends run concurrently, each bounded by the send timeout. Closed
// transports and failed sends are deregistered and closed once the pass is
// over; failures are never returned. It returns the number of successful deliveries.
func (r *Registry) Broadcast(ctx context.Context, msg []byte) int {
	r.mu.RLock()
	snapshot := make(map[string]Conn, len(r.conns))
	for id, conn := range r.conns {
		snapshot[id] = conn
	}
	r.mu.RUnlock()

	if len(snapshot) == 0 {
		return 0
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		toRemove  []string
		delivered int
	)

	for id, conn := range snapshot {
		if conn.State() != StateOpen {
			mu.Lock()
			toRemove = append(toRemove, id)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(id string, conn Conn) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
			err := conn.Send(sendCtx, msg)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Dropping subscriber %s: %v", id, err)
				toRemove = append(toRemove, id)
				return
			}
			delivered++
		}(id, conn)
	}
	wg.Wait()

	if len(toRemove) > 0 {
		r.mu.Lock()
		for _, id := range toRemove {
			delete(r.conns, id)
		}
		r.mu.Unlock()

		for _, id := range toRemove {
			if closer, ok := snapshot[id].(io.Closer); ok {
				closer.Close()
			}
		}
	}

	return delivered
}
