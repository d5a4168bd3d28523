// Package config loads process configuration from an optional file and the
// environment using Viper. Environment variables use the NOMAD_ prefix and
// underscores for nesting, e.g. NOMAD_CLICKHOUSE_ADDR.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/leshachaplin/nomad/internal/storage/event/clickhouse"
	"github.com/leshachaplin/nomad/internal/worker"
	"github.com/leshachaplin/nomad/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/nomad/internal/worker/redpanda/producer"
)

const envPrefix = "NOMAD"

// Config is the main config for the collector and demo binaries.
type Config struct {
	LogLevel      string            `mapstructure:"log_level"`
	LogFormat     string            `mapstructure:"log_format"`
	Addr          string            `mapstructure:"addr"`
	Clickhouse    clickhouse.Config `mapstructure:"clickhouse"`
	EventWorker   worker.Config     `mapstructure:"event_worker"`
	EventProducer producer.Config   `mapstructure:"event_producer"`
	EventConsumer consumer.Config   `mapstructure:"event_consumer"`
	Tracker       Tracker           `mapstructure:"tracker"`
}

// Tracker configures the SDK in the demo binary.
type Tracker struct {
	AppKey         string        `mapstructure:"app_key"`
	Host           string        `mapstructure:"host"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
	Debug          bool          `mapstructure:"debug"`
	AppVersion     string        `mapstructure:"app_version"`
	AppBuildNumber string        `mapstructure:"app_build_number"`
}

// UsesRedpanda reports whether batches go through Redpanda rather than the
// in-memory queue.
func (c Config) UsesRedpanda() bool {
	return len(c.EventProducer.Brokers) > 0
}

func (c Config) UsesClickhouse() bool {
	return c.Clickhouse.Addr != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("log_format", "json")
	v.SetDefault("addr", ":3000")

	v.SetDefault("clickhouse.addr", "")
	v.SetDefault("clickhouse.db", "default")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.password", "")
	v.SetDefault("clickhouse.debug", false)

	v.SetDefault("event_worker.num_workers", 4)
	v.SetDefault("event_worker.queue_size", 1024)

	v.SetDefault("event_producer.retry_attempts", 3)
	v.SetDefault("event_producer.retry_delay", time.Second)
	v.SetDefault("event_producer.brokers", []string{})
	v.SetDefault("event_producer.topic", "events")

	v.SetDefault("event_consumer.brokers", []string{})
	v.SetDefault("event_consumer.consumer_group", "events-cg")
	v.SetDefault("event_consumer.topics", []string{"events"})
	v.SetDefault("event_consumer.poll_fetches_timeout", 15*time.Second)

	v.SetDefault("tracker.app_key", "A-DEV-000")
	v.SetDefault("tracker.host", "")
	v.SetDefault("tracker.flush_interval", time.Duration(0))
	v.SetDefault("tracker.debug", true)
	v.SetDefault("tracker.app_version", "")
	v.SetDefault("tracker.app_build_number", "")
}

// Load reads the config file at path, if given, then applies environment
// overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Addr == "" {
		return errors.New("config: addr must be set")
	}
	if c.UsesRedpanda() {
		if c.EventProducer.Topic == "" {
			return errors.New("config: event_producer.topic must be set when brokers are configured")
		}
		if len(c.EventConsumer.Brokers) == 0 {
			return errors.New("config: event_consumer.brokers must be set together with event_producer.brokers")
		}
	}
	if c.EventWorker.NumWorkers < 0 {
		return errors.New("config: event_worker.num_workers must not be negative")
	}
	return nil
}
