package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/leshachaplin/nomad/app/waiter"
	"github.com/leshachaplin/nomad/internal/config"
	appServer "github.com/leshachaplin/nomad/internal/server/http"
	"github.com/leshachaplin/nomad/internal/service"
	"github.com/leshachaplin/nomad/internal/storage/event/clickhouse"
	"github.com/leshachaplin/nomad/internal/storage/event/logstore"
	"github.com/leshachaplin/nomad/internal/worker"
	"github.com/leshachaplin/nomad/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/nomad/internal/worker/redpanda/producer"
)

const shutdownTimeout = time.Minute

type LoadConfigFn func() (config.Config, error)

// App is the development collector: it accepts SDK batches over HTTP and
// stores them through a worker pool.
type App struct {
	cfg      config.Config
	logger   zerolog.Logger
	server   *appServer.Server
	waiter   waiter.Waiter
	ctx      context.Context
	cancelFn context.CancelFunc
	closers  []io.Closer
}

func New(loadConfigFn LoadConfigFn) *App {
	ctx, cancelFn := context.WithCancel(context.Background())
	cfg, err := loadConfigFn()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := NewZeroLogger(Level(cfg.LogLevel), Format(cfg.LogFormat))

	w := waiter.NewWaiter(ctx, cancelFn, waiter.WithSignals(os.Interrupt, syscall.SIGTERM))

	return &App{
		cfg:      cfg,
		logger:   logger,
		waiter:   w,
		ctx:      w.Context(),
		cancelFn: w.CancelFunc(),
	}
}

func (a *App) Start() {
	defer a.cancelFn()
	defer a.close()

	eventQueue, err := a.newQueue()
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event queue.")
	}

	l := a.logger.With().Str("WORKER", "EVENT").Logger()
	eventWorker := worker.New(a.ctx, a.cfg.EventWorker, eventQueue, l)

	eventStorage, err := a.newStorage()
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup event storage.")
	}

	eventService := service.New(eventWorker, eventStorage, a.logger)
	handler := appServer.NewHandler(eventService, a.logger)

	a.server = appServer.New(handler)

	a.waitForServer()
	a.waitForWorker(eventWorker)

	if err = a.waiter.Wait(); err != nil {
		a.logger.Error().Err(err).Msg("App crash.")
	}
}

func (a *App) Stop() {
	a.cancelFn()
}

func (a *App) newQueue() (worker.Queue, error) {
	if !a.cfg.UsesRedpanda() {
		a.logger.Info().Int("size", a.cfg.EventWorker.QueueSize).Msg("using in-memory event queue")
		return worker.NewMemoryQueue(a.cfg.EventWorker.QueueSize), nil
	}

	consumerErrorChan := make(chan error, 1)
	eventConsumer, err := consumer.NewConsumer(
		a.cfg.EventConsumer,
		consumerErrorChan,
		a.logger.With().Str("event consumer", "Consume").Logger(),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, eventConsumer)

	eventProducer, err := producer.NewProducer(
		a.ctx,
		a.cfg.EventProducer,
		a.logger.With().Str("event producer", "Publish").Logger(),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, eventProducer)

	a.waiter.Add(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-consumerErrorChan:
				a.logger.Warn().Err(err).Msg("event consumer error")
			}
		}
	})

	return worker.NewRedpandaQueue(eventProducer, eventConsumer), nil
}

func (a *App) newStorage() (service.Storage, error) {
	if !a.cfg.UsesClickhouse() {
		a.logger.Info().Msg("no clickhouse configured, events are only logged")
		return logstore.New(a.logger.With().Str("storage", "log").Logger()), nil
	}

	eventStorage, err := clickhouse.New(a.ctx, a.cfg.Clickhouse, a.logger.With().Str("storage", "clickhouse").Logger())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, eventStorage)

	if err := eventStorage.Migrate(a.ctx); err != nil {
		return nil, err
	}
	return eventStorage, nil
}

func (a *App) close() {
	var result *multierror.Error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		a.logger.Warn().Err(err).Msg("error while closing resources")
	}
}

func (a *App) waitForServer() {
	a.waiter.Add(func(ctx context.Context) error {
		defer a.logger.Debug().Msg("server has been shutdown")

		group, gCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			defer a.logger.Debug().Msg("public server exited")
			a.logger.Info().Str("addr", a.cfg.Addr).Msg("starting server")
			err := a.server.ServePublic(a.cfg.Addr)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-gCtx.Done()
			a.logger.Debug().Msg("shutting down the server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := a.server.ShutdownPublic(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("error while shutting down the server")
			}
			return nil
		})

		return group.Wait()
	})
}

func (a *App) waitForWorker(eventWorker worker.WorkerPool) {
	a.waiter.Add(func(ctx context.Context) error {
		<-ctx.Done()
		eventWorker.GracefulStop()
		return nil
	})
}
