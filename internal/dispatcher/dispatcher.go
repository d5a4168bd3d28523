package dispatcher

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/internal/domain"
	"github.com/leshachaplin/nomad/internal/queue"
	"github.com/leshachaplin/nomad/internal/transport"
)

var errStopped = errors.New("dispatcher stopped")

// Dispatcher owns the event queue and delivers it in batches, either on a
// timer or on demand. At most one flush cycle runs at a time. A batch that
// fails to send is put back at the head of the queue and retried, unchanged,
// on the next cycle.
type Dispatcher struct {
	cfg       Config
	queue     *queue.Queue
	transport transport.Transport

	mu       sync.Mutex
	inflight *cycle

	start    sync.Once
	stop     sync.Once
	doneChan chan struct{}
	wg       *sync.WaitGroup
	logger   zerolog.Logger
}

type cycle struct {
	done chan struct{}
	err  error
}

func New(cfg Config, q *queue.Queue, t transport.Transport, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg.withDefaults(),
		queue:     q,
		transport: t,
		doneChan:  make(chan struct{}),
		wg:        &sync.WaitGroup{},
		logger:    logger,
	}
}

// Start launches the periodic flush loop. Calling it again has no effect.
func (d *Dispatcher) Start() {
	d.start.Do(func() {
		d.wg.Add(1)
		go d.loop()
	})
}

// GracefulStop stops the loop and waits for it and for any in-flight flush.
// An in-flight send is allowed to finish. Flushes can still be triggered
// afterwards.
func (d *Dispatcher) GracefulStop() {
	d.stop.Do(func() {
		close(d.doneChan)
	})
	d.wg.Wait()

	d.mu.Lock()
	c := d.inflight
	d.mu.Unlock()
	if c != nil {
		<-c.done
	}
}

func (d *Dispatcher) Enqueue(e domain.Event) {
	d.queue.Enqueue(e)
}

func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// TriggerFlush starts a flush cycle in the background and returns a channel
// closed when it completes. If a cycle is already running, no new one is
// started and that cycle's channel is returned instead.
func (d *Dispatcher) TriggerFlush() <-chan struct{} {
	return d.trigger().done
}

// Flush triggers or joins a flush cycle and waits for it. It returns the
// cycle's send error, or ctx's error if ctx ends first.
func (d *Dispatcher) Flush(ctx context.Context) error {
	c := d.trigger()
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) trigger() *cycle {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.inflight != nil {
		return d.inflight
	}

	c := &cycle{done: make(chan struct{})}
	d.inflight = c
	go func() {
		c.err = d.flush()

		d.mu.Lock()
		d.inflight = nil
		d.mu.Unlock()
		close(c.done)
	}()
	return c
}

func (d *Dispatcher) flush() error {
	batch := d.queue.DrainAll()
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if err := d.transport.Send(ctx, batch); err != nil {
		d.queue.Restore(batch)
		d.logger.Warn().
			Err(err).
			Int("batch_size", len(batch)).
			Int("queue_len", d.queue.Len()).
			Msg("failed to send events, batch kept for next flush")
		return err
	}

	d.logger.Debug().Int("batch_size", len(batch)).Msg("events sent")
	return nil
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.doneChan:
			return
		default:
		}

		if err := d.sleep(d.nextInterval()); err != nil {
			d.logger.Debug().Err(err).Msg("flush interval interrupted")
			continue
		}
		<-d.TriggerFlush()
	}
}

func (d *Dispatcher) nextInterval() time.Duration {
	if d.cfg.Tolerance <= 0 {
		return d.cfg.FlushInterval
	}
	return d.cfg.FlushInterval + time.Duration(rand.Int63n(int64(d.cfg.Tolerance)+1))
}

func (d *Dispatcher) sleep(interval time.Duration) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-d.doneChan:
		return errStopped
	}
}
