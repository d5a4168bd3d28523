package dispatcher

import "time"

const (
	DefaultFlushInterval = 60 * time.Second
	DefaultTolerance     = time.Second
	DefaultSendTimeout   = 30 * time.Second
)

type Config struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	// Tolerance is the upper bound of random slack added to each sleep.
	Tolerance   time.Duration `mapstructure:"tolerance"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

func (c Config) withDefaults() Config {
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.Tolerance < 0 {
		c.Tolerance = 0
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	return c
}
