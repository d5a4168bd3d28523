package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/internal/domain"
	"github.com/leshachaplin/nomad/internal/worker"
)

type Storage interface {
	StoreEvents(ctx context.Context, batch domain.IngestBatch) error
}

type Processor interface {
	Ingester
	Storage
}

type Service struct {
	eventPool    worker.WorkerPool
	eventStorage Storage
	logger       zerolog.Logger
}

// New starts eventPool with eventStorage as its sink.
func New(eventPool worker.WorkerPool, eventStorage Storage, logger zerolog.Logger) *Service {
	eventPool.Start(eventStorage.StoreEvents)

	return &Service{
		eventPool:    eventPool,
		eventStorage: eventStorage,
		logger:       logger,
	}
}

func (s *Service) StoreEvents(ctx context.Context, batch domain.IngestBatch) error {
	return s.eventStorage.StoreEvents(ctx, batch)
}
