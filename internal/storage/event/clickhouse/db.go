package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"
)

type Config struct {
	Addr     string `mapstructure:"addr"`
	DB       string `mapstructure:"db"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Debug    bool   `mapstructure:"debug"`
}

type Clickhouse struct {
	conn driver.Conn
}

func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Clickhouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.DB,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Debugf: func(format string, v ...any) {
			logger.Debug().Msgf(format, v...)
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     time.Second * 30,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Duration(10) * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err = conn.Ping(ctx); err != nil {
		var exception *clickhouse.Exception
		if errors.As(err, &exception) {
			logger.Error().
				Int32("code", exception.Code).
				Str("stack_trace", exception.StackTrace).
				Msg(exception.Message)
		}
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &Clickhouse{
		conn: conn,
	}, nil
}

func (c *Clickhouse) Close() error {
	return c.conn.Close()
}

func (c *Clickhouse) Migrate(ctx context.Context) error {
	return c.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS events
		(
			timestamp        DateTime64(3, 'UTC'),
			server_time      DateTime64(3, 'UTC'),
			ip               IPv4,
			app_key          String,
			user_id          UUID,
			session_id       String,
			event_name       String,
			is_debug         Bool,
			locale           String,
			os_name          String,
			os_version       String,
			app_version      String,
			app_build_number String,
			sdk_version      String,
			device_model     String,
			props            String
		) Engine = MergeTree
		ORDER BY (app_key, timestamp)`)
}
