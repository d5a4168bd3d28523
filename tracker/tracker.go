// Package tracker is the entry point of the SDK.
//
// Basic usage:
//
//	cfg, err := tracker.NewConfig("A-EU-1234567890", tracker.Release)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	t, err := tracker.New(cfg, tracker.WithApp(device.App{Version: "1.2.0"}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close(context.Background())
//
//	t.Track("item_created", map[string]any{"plan": "pro", "seats": 3})
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leshachaplin/nomad/device"
	"github.com/leshachaplin/nomad/internal/dispatcher"
	"github.com/leshachaplin/nomad/internal/domain"
	"github.com/leshachaplin/nomad/internal/queue"
	"github.com/leshachaplin/nomad/internal/session"
	"github.com/leshachaplin/nomad/internal/transport"
)

// Tracker records events and ships them in the background. Create one per
// process with New and share it; all methods are safe for concurrent use.
type Tracker struct {
	cfg        Config
	userID     uuid.UUID
	sessionID  string
	device     device.Provider
	now        func() time.Time
	dispatcher *dispatcher.Dispatcher
	pending    *sync.WaitGroup
	logger     zerolog.Logger
}

func New(cfg Config, opts ...Option) (*Tracker, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	o := options{
		logger: log.Logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With().Str("component", "tracker").Logger()

	userID, err := resolveUserID(o, logger)
	if err != nil {
		return nil, err
	}

	var t Transport = o.transport
	if t == nil {
		httpTransport, err := transport.NewHTTP(transport.Config{
			Host:   cfg.Host,
			AppKey: cfg.AppKey,
		}, o.httpClient, logger.With().Str("component", "transport").Logger())
		if err != nil {
			return nil, fmt.Errorf("create transport: %w", err)
		}
		t = httpTransport
	}

	provider := o.device
	if provider == nil {
		o.app.Debug = o.app.Debug || cfg.Mode.IsDebug()
		provider = device.Detect(o.app)
	}

	sessionSource := o.sessionSource
	if sessionSource == nil {
		sessionSource = session.Generate
	}

	dCfg := dispatcher.Config{FlushInterval: cfg.FlushInterval}
	if o.tolerance != nil {
		dCfg.Tolerance = *o.tolerance
	} else {
		dCfg.Tolerance = dispatcher.DefaultTolerance
	}
	d := dispatcher.New(
		dCfg,
		queue.New(),
		t,
		logger.With().Str("component", "dispatcher").Logger(),
	)

	tr := &Tracker{
		cfg:        cfg,
		userID:     userID,
		sessionID:  sessionSource(userID, o.now()),
		device:     provider,
		now:        o.now,
		dispatcher: d,
		pending:    &sync.WaitGroup{},
		logger:     logger,
	}
	d.Start()
	return tr, nil
}

func resolveUserID(o options, logger zerolog.Logger) (uuid.UUID, error) {
	if o.userID != uuid.Nil {
		return o.userID, nil
	}

	path := o.idPath
	if path == "" {
		p, err := device.DefaultIDPath()
		if err != nil {
			logger.Warn().Err(err).Msg("no place to persist device id, using a random one")
			return uuid.New(), nil
		}
		path = p
	}

	id, err := device.LoadOrCreateID(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("could not persist device id, using a random one")
		return uuid.New(), nil
	}
	return id, nil
}

func (t *Tracker) UserID() uuid.UUID {
	return t.userID
}

// SessionID is derived once, when the tracker is created. It does not change
// when the calendar day rolls over.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Track records an event. It returns immediately; the event is built and
// queued in the background. Property values that are not nil, an integer,
// a float, a bool or a string are dropped with a warning.
func (t *Tracker) Track(eventName string, props map[string]any) {
	timestamp := t.now()
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		t.track(timestamp, eventName, props)
	}()
}

// TrackEvent records an event without properties.
func (t *Tracker) TrackEvent(eventName string) {
	t.Track(eventName, nil)
}

func (t *Tracker) track(timestamp time.Time, eventName string, raw map[string]any) {
	l := t.logger.With().Str("event", eventName).Logger()

	if t.sessionID == "" {
		l.Warn().Msg("no session id available, event dropped")
		return
	}

	props, dropped := domain.FilterProps(raw)
	for _, key := range dropped {
		l.Warn().Str("prop", key).Type("type", raw[key]).Msg("unsupported prop value ignored")
	}

	dc := t.device.DeviceContext()
	t.dispatcher.Enqueue(domain.NewEvent(
		timestamp,
		t.userID,
		t.sessionID,
		eventName,
		domain.SystemProps{
			IsDebug:        dc.IsDebug,
			Locale:         dc.Locale,
			OSName:         dc.OSName,
			OSVersion:      dc.OSVersion,
			AppVersion:     dc.AppVersion,
			AppBuildNumber: dc.AppBuildNumber,
			SDKVersion:     domain.SDKVersion,
			DeviceModel:    dc.DeviceModel,
		},
		props,
	))
}

// Flush asks for queued events to be sent now. It does not wait; if a flush
// is already running, it does nothing.
func (t *Tracker) Flush() {
	t.dispatcher.TriggerFlush()
}

// FlushWait waits for tracked events to be queued, then flushes them and
// waits for the result.
func (t *Tracker) FlushWait(ctx context.Context) error {
	if err := t.waitPending(ctx); err != nil {
		return err
	}
	return t.dispatcher.Flush(ctx)
}

// Pending reports how many events are queued and not yet delivered.
func (t *Tracker) Pending() int {
	return t.dispatcher.Pending()
}

// Close stops the background flush loop and makes one last attempt to send
// what is queued. Events that still cannot be sent are lost.
func (t *Tracker) Close(ctx context.Context) error {
	if err := t.waitPending(ctx); err != nil {
		return err
	}
	t.dispatcher.GracefulStop()

	if err := t.dispatcher.Flush(ctx); err != nil {
		t.logger.Warn().Err(err).Int("queue_len", t.dispatcher.Pending()).Msg("final flush failed")
		return fmt.Errorf("final flush: %w", err)
	}
	return nil
}

func (t *Tracker) waitPending(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
