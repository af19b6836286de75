package session

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrStaleGeneration is returned by Apply when the generation moved on
	// while the caller's work was in flight.
	ErrStaleGeneration = errors.New("session generation is stale")
	// ErrInvalidTransition is returned for a transition that would break the
	// snapshot invariants (back to Unresolved, Authenticated without a user or
	// profile, or a profile of another role).
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Container owns the current snapshot. It is safe for concurrent use.
type Container struct {
	mu       sync.Mutex
	snap     Snapshot
	resolved chan struct{}

	subs    map[uint64]chan Snapshot
	nextSub uint64
}

// NewContainer returns a container in the Unresolved state at generation 0.
func NewContainer() *Container {
	return &Container{
		resolved: make(chan struct{}),
		subs:     make(map[uint64]chan Snapshot),
	}
}

// Snapshot returns the current snapshot.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Generation returns the current generation.
func (c *Container) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Generation
}

// Current reports whether gen is still the current generation.
func (c *Container) Current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.Generation == gen
}

// Advance invalidates all in-flight work and returns the new generation. The
// snapshot itself is not republished.
func (c *Container) Advance() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Generation++
	return c.snap.Generation
}

// Set applies t if gen is still current.
func (c *Container) Set(gen uint64, t Transition) (Snapshot, error) {
	return c.Apply(gen, func(Snapshot) (Transition, error) { return t, nil })
}

// Apply computes a transition from the current snapshot and publishes it, as
// one step, if gen is still current. fn runs under the container lock and
// must not block.
func (c *Container) Apply(gen uint64, fn func(cur Snapshot) (Transition, error)) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.Generation != gen {
		return c.snap, ErrStaleGeneration
	}
	t, err := fn(c.snap)
	if err != nil {
		return c.snap, err
	}
	if err := t.validate(); err != nil {
		return c.snap, err
	}

	c.snap = Snapshot{
		State:      t.State,
		User:       t.User,
		Profile:    t.Profile,
		Generation: c.snap.Generation,
		Version:    c.snap.Version + 1,
	}
	c.publishLocked()
	return c.snap, nil
}

// Force advances the generation and applies t in the new generation. Used by
// operations that supersede whatever is in flight.
func (c *Container) Force(t Transition) (Snapshot, error) {
	if err := t.validate(); err != nil {
		return c.Snapshot(), err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = Snapshot{
		State:      t.State,
		User:       t.User,
		Profile:    t.Profile,
		Generation: c.snap.Generation + 1,
		Version:    c.snap.Version + 1,
	}
	c.publishLocked()
	return c.snap, nil
}

// Resolved returns a channel closed once the session leaves Unresolved.
func (c *Container) Resolved() <-chan struct{} {
	return c.resolved
}

// WaitResolved blocks until the session is resolved or ctx is done.
func (c *Container) WaitResolved(ctx context.Context) (Snapshot, error) {
	select {
	case <-c.resolved:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// Subscribe returns a channel that receives every published snapshot,
// starting with the current one. When the subscriber falls behind, older
// undelivered snapshots are discarded so the newest is always delivered.
// The returned func unsubscribes and closes the channel.
func (c *Container) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snap
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

func (c *Container) publishLocked() {
	if c.snap.State != Unresolved {
		select {
		case <-c.resolved:
		default:
			close(c.resolved)
		}
	}

	for _, ch := range c.subs {
		deliverLatest(ch, c.snap)
	}
}

// deliverLatest sends s, discarding the oldest buffered snapshot while the
// channel is full.
func deliverLatest(ch chan Snapshot, s Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
