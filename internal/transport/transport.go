package transport

import (
	"context"
	"errors"

	"github.com/leshachaplin/nomad/internal/domain"
)

// ErrUnexpectedStatus is wrapped by Send errors caused by a non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Transport delivers one batch of events. A nil error means the endpoint
// accepted the whole batch.
type Transport interface {
	Send(ctx context.Context, batch []domain.Event) error
}
