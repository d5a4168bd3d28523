package queue

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/nomad/internal/domain"
)

func event(name string) domain.Event {
	return domain.Event{EventName: name}
}

func names(events []domain.Event) []string {
	return domain.Batch(events).Names()
}

func TestQueue_DrainEmpty(t *testing.T) {
	q := New()
	require.Empty(t, q.DrainAll())
	require.Equal(t, 0, q.Len())
}

func TestQueue_DrainAll(t *testing.T) {
	q := New()
	q.Enqueue(event("app_started"))
	q.Enqueue(event("item_created"))
	q.Enqueue(event("item_deleted"))
	require.Equal(t, 3, q.Len())

	require.Equal(t, []string{"app_started", "item_created", "item_deleted"}, names(q.DrainAll()))
	require.Equal(t, 0, q.Len())
	require.Empty(t, q.DrainAll())
}

func TestQueue_RestoreGoesToFront(t *testing.T) {
	q := New()
	q.Enqueue(event("a"))
	q.Enqueue(event("b"))
	batch := q.DrainAll()

	q.Enqueue(event("c"))
	q.Restore(batch)

	require.Equal(t, []string{"a", "b", "c"}, names(q.DrainAll()))
}

func TestQueue_RestoreEmpty(t *testing.T) {
	q := New()
	q.Enqueue(event("a"))
	q.Restore(nil)
	require.Equal(t, []string{"a"}, names(q.DrainAll()))
}

func TestQueue_ConcurrentEnqueueAndDrain(t *testing.T) {
	const (
		producers = 8
		perWorker = 500
	)

	q := New()
	wg := &sync.WaitGroup{}
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.Enqueue(event(strconv.Itoa(p) + "-" + strconv.Itoa(i)))
			}
		}(p)
	}

	seen := make(map[string]int)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	collect := func() {
		for _, e := range q.DrainAll() {
			seen[e.EventName]++
		}
	}
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
			collect()
		}
	}
	collect()

	require.Len(t, seen, producers*perWorker)
	for name, count := range seen {
		require.Equal(t, 1, count, name)
	}
}
