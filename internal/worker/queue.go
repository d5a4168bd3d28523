package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/leshachaplin/nomad/internal/domain"
	"github.com/leshachaplin/nomad/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/nomad/internal/worker/redpanda/producer"
)

var errUnsupportedPayload = errors.New("unsupported payload")

type Queue interface {
	Publish(ctx context.Context, key string, payload any) error
	Consume(ctx context.Context, taskPayload chan<- domain.IngestBatch, done <-chan struct{})
}

// MemoryQueue keeps batches in a buffered channel. Publish blocks while the
// buffer is full.
type MemoryQueue struct {
	batches chan domain.IngestBatch
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &MemoryQueue{
		batches: make(chan domain.IngestBatch, size),
	}
}

func (m *MemoryQueue) Publish(ctx context.Context, _ string, p any) error {
	var batch domain.IngestBatch
	switch v := p.(type) {
	case domain.IngestBatch:
		batch = v
	case payload:
		batch = v.Payload
	default:
		return fmt.Errorf("%w: %T", errUnsupportedPayload, p)
	}

	select {
	case m.batches <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryQueue) Consume(ctx context.Context, taskPayload chan<- domain.IngestBatch, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case batch := <-m.batches:
			select {
			case taskPayload <- batch:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}
}

type RedpandaQueue struct {
	producer *producer.Producer
	consumer *consumer.Consumer
}

func NewRedpandaQueue(producer *producer.Producer, consumer *consumer.Consumer) *RedpandaQueue {
	return &RedpandaQueue{
		producer: producer,
		consumer: consumer,
	}
}

func (r *RedpandaQueue) Publish(ctx context.Context, key string, payload any) error {
	if err := r.producer.Publish(ctx, key, payload); err != nil {
		return err
	}
	return nil
}

func (r *RedpandaQueue) Consume(ctx context.Context, taskPayload chan<- domain.IngestBatch, done <-chan struct{}) {
	r.consumer.Consume(ctx, taskPayload, done)
}
