// Package queue implements the bounded admission gate that limits how many
// transcription jobs run inference concurrently. Unlike a plain weighted
// semaphore it keeps a FIFO waiter list, reports each job's position at
// enqueue time, and records how long every job waited for admission.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTicketReleased is returned when Release is called twice for one ticket.
// Double release would hand out a phantom slot, so it is guarded explicitly.
var ErrTicketReleased = errors.New("ticket already released")

// Ticket is one request's claim on queue capacity. A ticket is waiting until
// the queue grants it a slot, active while it holds the slot, and released
// afterwards. All lifecycle fields are guarded by the owning queue's mutex.
type Ticket struct {
	// ID is a process-lifetime unique, monotonically increasing identifier.
	ID int64

	// Position is the number of jobs strictly ahead (active plus waiting)
	// at enqueue time. Zero means the ticket was admitted immediately.
	Position int

	enqueuedAt time.Time
	ready      chan struct{}

	// guarded by Queue.mu
	active      bool
	released    bool
	waitSeconds float64
}

// WaitSeconds reports how long the ticket waited before becoming active.
// It is only meaningful after Wait has returned.
func (t *Ticket) WaitSeconds() float64 {
	return t.waitSeconds
}

// Stats is a consistent snapshot of queue occupancy.
type Stats struct {
	Capacity int `json:"capacity"`
	Active   int `json:"active"`
	Waiting  int `json:"waiting"`
}

// Queue is a bounded counting semaphore with FIFO fairness. Slots freed by
// Release are handed directly to the oldest waiter, so a later Enqueue can
// never steal a slot from a job that is already queued.
type Queue struct {
	mu        sync.Mutex
	capacity  int
	available int
	waiters   []*Ticket
	nextID    int64
}

// New creates a queue with the given capacity. Capacity below 1 is coerced
// to 1: a zero-capacity queue would block every caller forever.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		capacity:  capacity,
		available: capacity,
	}
}

// Enqueue registers a new job and returns its ticket. If a slot is free the
// ticket comes back already active with position 0. Otherwise it joins the
// tail of the waiter list; the caller must then block in Wait and must call
// Release exactly once regardless of how the job ends.
func (q *Queue) Enqueue() *Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	t := &Ticket{
		ID:         q.nextID,
		enqueuedAt: time.Now(),
		ready:      make(chan struct{}),
	}

	if q.available > 0 {
		q.available--
		t.active = true
		close(t.ready)
		return t
	}

	// Everyone currently active plus everyone already waiting is ahead.
	t.Position = (q.capacity - q.available) + len(q.waiters)
	q.waiters = append(q.waiters, t)
	return t
}

// Wait blocks until the ticket is active or ctx is done. It returns
// immediately for a ticket that is already active and is safe to call again
// after the ticket became ready. On ctx cancellation the ticket is still
// queued; the caller's Release removes it.
func (q *Queue) Wait(ctx context.Context, t *Ticket) error {
	select {
	case <-t.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns the ticket's claim to the queue. For an active ticket the
// freed slot goes straight to the head waiter when one exists; only when no
// one is waiting does the available counter grow. For a ticket that never
// became active (caller gave up while queued) the waiter entry is removed
// with no slot accounting. Calling Release twice returns ErrTicketReleased
// and leaves the queue untouched.
func (q *Queue) Release(t *Ticket) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t.released {
		return ErrTicketReleased
	}
	t.released = true

	if !t.active {
		for i, w := range q.waiters {
			if w.ID == t.ID {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				break
			}
		}
		return nil
	}

	if len(q.waiters) > 0 {
		next := q.waiters[0]
		q.waiters = q.waiters[1:]
		q.activateLocked(next)
		return nil
	}

	if q.available < q.capacity {
		q.available++
	}
	return nil
}

// Stats returns capacity, active and waiting counts under the queue mutex so
// the three values are never torn against each other.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Capacity: q.capacity,
		Active:   q.capacity - q.available,
		Waiting:  len(q.waiters),
	}
}

// activateLocked marks a waiter active and wakes its Wait. The freed slot is
// transferred directly, so available stays unchanged. Caller holds q.mu.
func (q *Queue) activateLocked(t *Ticket) {
	t.active = true
	t.waitSeconds = time.Since(t.enqueuedAt).Seconds()
	close(t.ready)
}
