package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/internal/domain"
)

const (
	EventsPath   = "/api/v0/events"
	AppKeyHeader = "App-Key"

	defaultTimeout = 30 * time.Second
)

type Config struct {
	Host      string        `mapstructure:"host"`
	AppKey    string        `mapstructure:"app_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RetryMax  int           `mapstructure:"retry_max"`
	UserAgent string        `mapstructure:"user_agent"`
}

// HTTP posts batches as a JSON array to the ingestion endpoint.
type HTTP struct {
	endpoint  string
	appKey    string
	userAgent string
	client    *retryablehttp.Client
	logger    zerolog.Logger
}

// NewHTTP builds the transport. client may be nil, in which case a
// retryablehttp client is created from cfg. RetryMax defaults to zero: the
// dispatcher retries whole batches on its own schedule.
func NewHTTP(cfg Config, client *retryablehttp.Client, logger zerolog.Logger) (*HTTP, error) {
	endpoint, err := endpointURL(cfg.Host)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client = retryablehttp.NewClient()
		client.RetryMax = cfg.RetryMax
		if cfg.Timeout == 0 {
			client.HTTPClient.Timeout = defaultTimeout
		} else {
			client.HTTPClient.Timeout = cfg.Timeout
		}
	}
	client.Logger = NewLeveledLogger(logger)
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = domain.SDKVersion
	}

	return &HTTP{
		endpoint:  endpoint,
		appKey:    cfg.AppKey,
		userAgent: userAgent,
		client:    client,
		logger:    logger,
	}, nil
}

func endpointURL(host string) (string, error) {
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("parse host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("parse host: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("parse host: missing host in %q", host)
	}
	return u.JoinPath(EventsPath).String(), nil
}

func (t *HTTP) Endpoint() string {
	return t.endpoint
}

func (t *HTTP) Send(ctx context.Context, batch []domain.Event) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set(AppKeyHeader, t.appKey)

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, res.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
