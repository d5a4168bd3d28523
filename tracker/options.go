package tracker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/device"
	"github.com/leshachaplin/nomad/internal/domain"
)

type (
	Event       = domain.Event
	SystemProps = domain.SystemProps
	Value       = domain.Value
)

// Transport delivers a batch of events. The default posts JSON to the
// configured host. A nil error means the whole batch was accepted.
type Transport interface {
	Send(ctx context.Context, batch []Event) error
}

type Option func(*options)

type options struct {
	logger        zerolog.Logger
	transport     Transport
	httpClient    *retryablehttp.Client
	userID        uuid.UUID
	idPath        string
	device        device.Provider
	app           device.App
	now           func() time.Time
	sessionSource func(uuid.UUID, time.Time) string
	tolerance     *time.Duration
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithHTTPClient overrides the client used by the default transport.
func WithHTTPClient(client *retryablehttp.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithUserID fixes the user id instead of loading it from disk.
func WithUserID(id uuid.UUID) Option {
	return func(o *options) {
		o.userID = id
	}
}

// WithDeviceIDPath changes where the device id is persisted.
func WithDeviceIDPath(path string) Option {
	return func(o *options) {
		o.idPath = path
	}
}

// WithApp describes the host application for automatic device detection.
// It is ignored when WithDeviceProvider is also given.
func WithApp(app device.App) Option {
	return func(o *options) {
		o.app = app
	}
}

func WithDeviceProvider(p device.Provider) Option {
	return func(o *options) {
		o.device = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSessionSource replaces the session id derivation. An empty result
// means no session is available and tracked events are dropped.
func WithSessionSource(fn func(userID uuid.UUID, now time.Time) string) Option {
	return func(o *options) {
		o.sessionSource = fn
	}
}

// WithFlushTolerance bounds the random slack added to each flush interval.
func WithFlushTolerance(d time.Duration) Option {
	return func(o *options) {
		o.tolerance = &d
	}
}
