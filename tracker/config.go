package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidAppKey = errors.New("invalid app key")
	// ErrUnsupportedSelfHosted is returned for self-hosted (SH) keys, which
	// have no default host. Use NewConfigWithHost instead.
	ErrUnsupportedSelfHosted = errors.New("self-hosted app key requires an explicit host")
)

const (
	ReleaseFlushInterval = 60 * time.Second
	DebugFlushInterval   = 2 * time.Second
)

var regionHosts = map[string]string{
	"US":  "https://us.aptabase.com",
	"EU":  "https://eu.aptabase.com",
	"DEV": "http://localhost:3000",
}

// Mode selects debug or release tracking. Debug events are flagged as such
// and flushed more often.
type Mode int

const (
	Release Mode = iota
	Debug
)

func (m Mode) IsDebug() bool {
	return m == Debug
}

func (m Mode) String() string {
	if m == Debug {
		return "debug"
	}
	return "release"
}

type Config struct {
	AppKey string
	// Host overrides the host derived from AppKey.
	Host          string
	FlushInterval time.Duration
	Mode          Mode
}

// ParseAppKey returns the default host for an app key of the form
// A-REGION-XXXXXXXXXX.
func ParseAppKey(appKey string) (string, error) {
	segments := strings.Split(appKey, "-")
	if len(segments) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAppKey, appKey)
	}

	region := segments[1]
	if region == "SH" {
		return "", ErrUnsupportedSelfHosted
	}
	host, ok := regionHosts[region]
	if !ok {
		return "", fmt.Errorf("%w: unknown region %q", ErrInvalidAppKey, region)
	}
	return host, nil
}

// NewConfig builds a config whose host is derived from the app key.
func NewConfig(appKey string, mode Mode) (Config, error) {
	host, err := ParseAppKey(appKey)
	if err != nil {
		return Config{}, err
	}
	return NewConfigWithHost(appKey, host, mode), nil
}

// NewConfigWithHost builds a config for a custom (e.g. self-hosted) host.
func NewConfigWithHost(appKey, host string, mode Mode) Config {
	return Config{
		AppKey:        appKey,
		Host:          host,
		FlushInterval: DefaultFlushInterval(mode),
		Mode:          mode,
	}
}

func DefaultFlushInterval(mode Mode) time.Duration {
	if mode.IsDebug() {
		return DebugFlushInterval
	}
	return ReleaseFlushInterval
}

func (c Config) validate() (Config, error) {
	if c.AppKey == "" {
		return c, fmt.Errorf("%w: empty", ErrInvalidAppKey)
	}
	if c.Host == "" {
		host, err := ParseAppKey(c.AppKey)
		if err != nil {
			return c, err
		}
		c.Host = host
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval(c.Mode)
	}
	return c, nil
}
