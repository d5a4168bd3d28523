package service

import (
	"errors"
	"time"

	"github.com/leshachaplin/nomad/internal/domain"
)

var (
	errMissingEventName = errors.New("missing event name")
	errMissingSession   = errors.New("missing session id")
	errMissingTimestamp = errors.New("missing timestamp")
)

type Ingester interface {
	Ingest(appKey string, events []domain.IngestEvent, clientIP string, serverTime time.Time)
}

// Ingest enriches the valid events of one request and hands them to the
// worker pool as a single batch. Invalid events are logged and skipped.
func (s *Service) Ingest(appKey string, events []domain.IngestEvent, clientIP string, serverTime time.Time) {
	l := s.logger.With().Str("Service", "Ingest").Str("app_key", appKey).Logger()

	batch := domain.IngestBatch{
		Events: make([]domain.IngestEvent, 0, len(events)),
	}
	for i := range events {
		event := events[i]
		if err := validate(event.Event); err != nil {
			l.Warn().Err(err).Str("event", event.EventName).Msg("Skipping invalid event")
			continue
		}
		event.EnrichWith(appKey, clientIP, serverTime)
		batch.Events = append(batch.Events, event)
	}

	if len(batch.Events) > 0 {
		batch.ID = batch.Events[0].SessionID
		s.eventPool.Process(batch)
	}
}

func validate(e domain.Event) error {
	switch {
	case e.EventName == "":
		return errMissingEventName
	case e.SessionID == "":
		return errMissingSession
	case e.Timestamp.IsZero():
		return errMissingTimestamp
	default:
		return nil
	}
}
