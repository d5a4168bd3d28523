package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/internal/domain"
)

type ExecuteFn func(ctx context.Context, batch domain.IngestBatch) error

type WorkerPool interface {
	Start(executeFn ExecuteFn)
	GracefulStop()
	Process(batch domain.IngestBatch)
}

type Option func(*Pool)

// WithErrorQueue publishes batches that failed to queue or execute.
func WithErrorQueue(q Queue) Option {
	return func(p *Pool) {
		p.errorQueue = q
	}
}

type Pool struct {
	numWorkers  int
	taskPayload chan domain.IngestBatch
	queue       Queue
	errorQueue  Queue
	start       sync.Once
	stop        sync.Once
	doneChan    chan struct{}
	ctx         context.Context
	cancelFn    context.CancelFunc
	wg          *sync.WaitGroup
	logger      zerolog.Logger
}

func New(ctx context.Context, cfg Config, queue Queue, logger zerolog.Logger, opts ...Option) *Pool {
	cfg = cfg.withDefaults()
	c, cancelFn := context.WithCancel(ctx)
	p := &Pool{
		numWorkers:  cfg.NumWorkers,
		taskPayload: make(chan domain.IngestBatch, cfg.NumWorkers),
		doneChan:    make(chan struct{}),
		queue:       queue,
		ctx:         c,
		cancelFn:    cancelFn,
		wg:          &sync.WaitGroup{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (w *Pool) Start(executeFn ExecuteFn) {
	w.start.Do(func() {
		for i := 0; i < w.numWorkers; i++ {
			w.wg.Add(1)
			l := w.logger.With().Int("worker", i).Logger()
			go w.work(w.ctx, l, executeFn)
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.queue.Consume(w.ctx, w.taskPayload, w.doneChan)
		}()
	})
}

func (w *Pool) GracefulStop() {
	w.stop.Do(func() {
		close(w.doneChan)
		w.cancelFn()
		w.wg.Wait()
	})
}

func (w *Pool) Process(batch domain.IngestBatch) {
	if err := w.queue.Publish(w.ctx, batch.ID, batch); err != nil {
		w.onFailure(batch, err)
	}
}

func (w *Pool) onFailure(batch domain.IngestBatch, err error) {
	l := w.logger.Error().Err(err).Str("BATCH_ID", batch.ID).Int("EVENTS", len(batch.Events))
	if w.errorQueue == nil {
		l.Msg("failed to process events")
		return
	}

	p := payload{
		Payload: batch,
	}
	p.SetErrorReason(err)
	if errPublish := w.errorQueue.Publish(w.ctx, batch.ID, p); errPublish != nil {
		l.AnErr("publish_error", errPublish).Msg("failed to process events")
	}
}

func (w *Pool) work(
	ctx context.Context,
	logger zerolog.Logger,
	executeFn ExecuteFn,
) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.doneChan:
			return
		case pld, ok := <-w.taskPayload:
			if !ok {
				return
			}

			logger.Debug().Str("BATCH_ID", pld.ID).Int("EVENTS", len(pld.Events)).Msg("start processing events")
			if err := executeFn(ctx, pld); err != nil {
				w.onFailure(pld, err)
			}
			logger.Debug().Str("BATCH_ID", pld.ID).Msg("end processing events")
		}
	}
}

type payload struct {
	Payload domain.IngestBatch `json:"payload"`
	Error   *errorReason       `json:"error_reason"`
}

func (c *payload) SetErrorReason(err error) {
	if c.Error == nil {
		c.Error = new(errorReason)
	}
	c.Error.Reason = err
}

func (c *payload) GetErrorReason() error {
	if c.Error != nil {
		return c.Error.Reason
	}
	return nil
}

type errorReason struct {
	Reason error
}

func (e errorReason) MarshalJSON() ([]byte, error) {
	if e.Reason != nil {
		return json.Marshal(e.Reason.Error())
	}
	return json.Marshal(nil)
}

func (e *errorReason) UnmarshalJSON(data []byte) error {
	var reason string
	if err := json.Unmarshal(data, &reason); err != nil {
		return err
	}
	e.Reason = errors.New(reason)
	return nil
}
