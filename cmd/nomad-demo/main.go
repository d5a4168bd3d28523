// Command nomad-demo tracks a few events against the configured host and
// exits after the final flush.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leshachaplin/nomad/app"
	"github.com/leshachaplin/nomad/device"
	"github.com/leshachaplin/nomad/internal/config"
	"github.com/leshachaplin/nomad/tracker"
)

const closeTimeout = 30 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("NOMAD_CONFIG"), "path to a config file (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := app.NewZeroLogger(app.Level(cfg.LogLevel), app.Format(cfg.LogFormat))

	mode := tracker.Release
	if cfg.Tracker.Debug {
		mode = tracker.Debug
	}
	trackerCfg := tracker.Config{
		AppKey:        cfg.Tracker.AppKey,
		Host:          cfg.Tracker.Host,
		FlushInterval: cfg.Tracker.FlushInterval,
		Mode:          mode,
	}

	t, err := tracker.New(trackerCfg,
		tracker.WithLogger(logger),
		tracker.WithApp(device.App{
			Version:     cfg.Tracker.AppVersion,
			BuildNumber: cfg.Tracker.AppBuildNumber,
			Debug:       cfg.Tracker.Debug,
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create tracker")
	}

	logger.Info().
		Str("user_id", t.UserID().String()).
		Str("session_id", t.SessionID()).
		Msg("tracker started")

	t.TrackEvent("app_started")
	t.Track("item_created", map[string]any{"plan": "pro", "seats": 3, "trial": false})
	t.Track("item_deleted", map[string]any{"reason": "duplicate", "ratio": 0.5})

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	err = t.Close(ctx)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("events were not delivered")
		os.Exit(1)
	}
	logger.Info().Msg("events delivered")
}
