package queue

import (
	"sync"

	"github.com/leshachaplin/nomad/internal/domain"
)

// Queue holds events waiting to be flushed, in tracking order.
type Queue struct {
	mu     sync.Mutex
	events []domain.Event
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(e domain.Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// DrainAll removes and returns every queued event. It returns nil when the
// queue is empty.
func (q *Queue) DrainAll() []domain.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	drained := q.events
	q.events = nil
	return drained
}

// Restore puts batch back at the head of the queue, ahead of anything
// enqueued since it was drained.
func (q *Queue) Restore(batch []domain.Event) {
	if len(batch) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	restored := make([]domain.Event, 0, len(batch)+len(q.events))
	restored = append(restored, batch...)
	restored = append(restored, q.events...)
	q.events = restored
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
