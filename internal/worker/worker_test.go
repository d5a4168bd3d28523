package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leshachaplin/nomad/internal/domain"
)

func newBatch(id string, n int) domain.IngestBatch {
	events := make([]domain.IngestEvent, n)
	for k := range events {
		events[k] = domain.IngestEvent{
			Event: domain.Event{
				UserID:    uuid.New(),
				SessionID: id,
				EventName: "item_created",
			},
			AppKey: "A-DEV-000",
		}
	}
	return domain.IngestBatch{ID: id, Events: events}
}

func TestWorker_MemoryQueue(t *testing.T) {
	cases := map[string]struct {
		cfg        Config
		taskAmount int
	}{
		"ok": {
			cfg:        Config{NumWorkers: 10},
			taskAmount: 10,
		},
		"ok - tasks more than workers": {
			cfg:        Config{NumWorkers: 4, QueueSize: 8},
			taskAmount: 500,
		},
		"ok - tasks less than workers": {
			cfg:        Config{NumWorkers: 50},
			taskAmount: 5,
		},
		"ok - defaults": {
			cfg:        Config{},
			taskAmount: 20,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

			var (
				mu       sync.Mutex
				received = make(map[string]int)
				wg       sync.WaitGroup
			)
			wg.Add(tc.taskAmount)
			execFn := func(_ context.Context, batch domain.IngestBatch) error {
				mu.Lock()
				received[batch.ID]++
				mu.Unlock()
				wg.Done()
				return nil
			}

			cfg := tc.cfg.withDefaults()
			pool := New(context.Background(), tc.cfg, NewMemoryQueue(cfg.QueueSize), zerolog.Nop())
			pool.Start(execFn)

			for k := 0; k < tc.taskAmount; k++ {
				pool.Process(newBatch("test_id", 1))
			}

			waitTimeout(t, &wg, 5*time.Second)
			pool.GracefulStop()

			require.Equal(t, map[string]int{"test_id": tc.taskAmount}, received)
		})
	}
}

func TestWorker_FailedBatchGoesToErrorQueue(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	errorQueue := NewMemoryQueue(1)
	execErr := errors.New("storage down")

	pool := New(
		context.Background(),
		Config{NumWorkers: 1},
		NewMemoryQueue(1),
		zerolog.Nop(),
		WithErrorQueue(errorQueue),
	)
	pool.Start(func(context.Context, domain.IngestBatch) error {
		return execErr
	})

	pool.Process(newBatch("failed", 2))

	select {
	case batch := <-errorQueue.batches:
		require.Equal(t, "failed", batch.ID)
		require.Len(t, batch.Events, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("failed batch was not published to the error queue")
	}

	pool.GracefulStop()
}

func TestWorker_FailureWithoutErrorQueue(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	executed := make(chan struct{})
	pool := New(context.Background(), Config{NumWorkers: 1}, NewMemoryQueue(1), zerolog.Nop())
	pool.Start(func(context.Context, domain.IngestBatch) error {
		close(executed)
		return errors.New("boom")
	})

	pool.Process(newBatch("dropped", 1))

	select {
	case <-executed:
	case <-time.After(5 * time.Second):
		t.Fatal("batch was not executed")
	}
	pool.GracefulStop()
}

func TestWorker_ProcessAfterStopDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pool := New(context.Background(), Config{NumWorkers: 1}, NewMemoryQueue(1), zerolog.Nop())
	pool.Start(func(context.Context, domain.IngestBatch) error { return nil })
	pool.GracefulStop()
	pool.GracefulStop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for k := 0; k < 3; k++ {
			pool.Process(newBatch("late", 1))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Process blocked on a stopped pool")
	}
}

func TestMemoryQueue_Publish(t *testing.T) {
	cases := map[string]struct {
		payload any
		err     error
	}{
		"batch":   {payload: newBatch("a", 1)},
		"payload": {payload: payload{Payload: newBatch("a", 1)}},
		"unknown": {payload: "a", err: errUnsupportedPayload},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			q := NewMemoryQueue(1)
			err := q.Publish(context.Background(), "a", tc.payload)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "a", (<-q.batches).ID)
		})
	}
}

func TestMemoryQueue_PublishFullHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Publish(context.Background(), "a", newBatch("a", 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.Publish(ctx, "b", newBatch("b", 1)), context.DeadlineExceeded)
}

func TestPayload_ErrorReasonJSON(t *testing.T) {
	p := payload{Payload: newBatch("a", 1)}
	require.NoError(t, p.GetErrorReason())

	p.SetErrorReason(errors.New("storage down"))
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded payload
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.EqualError(t, decoded.GetErrorReason(), "storage down")
	require.Equal(t, "a", decoded.Payload.ID)
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batches")
	}
}
