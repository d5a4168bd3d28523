// Package logstore is the event storage used when no database is
// configured: batches are written to the log and dropped.
package logstore

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/internal/domain"
)

type Store struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Store {
	return &Store{logger: logger}
}

func (s *Store) StoreEvents(_ context.Context, batch domain.IngestBatch) error {
	for _, e := range batch.Events {
		s.logger.Info().
			Str("BATCH_ID", batch.ID).
			Str("app_key", e.AppKey).
			Str("session_id", e.SessionID).
			Str("event", e.EventName).
			Time("timestamp", e.Timestamp).
			Interface("props", e.Props).
			Msg("event received")
	}
	return nil
}
