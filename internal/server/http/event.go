package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/leshachaplin/nomad/internal/apierror"
	"github.com/leshachaplin/nomad/internal/domain"
)

const (
	appKeyHeader = "App-Key"
	maxBodyBytes = 1 << 20
)

type eventsResponse struct {
	Accepted int `json:"accepted"`
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	appKey := r.Header.Get(appKeyHeader)
	if appKey == "" {
		h.error(apierror.Unauthorized("missing App-Key header"), w)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.error(err, w)
		return
	}
	if len(data) > maxBodyBytes {
		h.error(apierror.NewAPIError("request body too large", http.StatusRequestEntityTooLarge), w)
		return
	}

	var events []domain.IngestEvent
	if err := json.Unmarshal(data, &events); err != nil {
		h.error(apierror.BadRequest("malformed events batch").WithDetail("error", err.Error()), w)
		return
	}

	go h.ingester.Ingest(appKey, events, getClientIP(r), time.Now())

	if err := encodeJSONResponse(w, http.StatusOK, eventsResponse{Accepted: len(events)}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode events response")
	}
}
