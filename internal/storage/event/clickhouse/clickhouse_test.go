package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/leshachaplin/nomad/internal/domain"
	"github.com/leshachaplin/nomad/internal/testingh"
)

type ClickhouseTestSuite struct {
	ctx      context.Context
	cancelFn context.CancelFunc

	container *testingh.Container
	storage   *Clickhouse

	suite.Suite
}

func (i *ClickhouseTestSuite) SetupSuite() {
	var err error
	i.ctx, i.cancelFn = context.WithTimeout(context.Background(), time.Minute*2)

	i.container, err = testingh.NewClickhouse(func(connURL string) error {
		ch, err := New(i.ctx, Config{
			Addr:     connURL,
			DB:       testingh.ClickhouseDB,
			Username: testingh.ClickhouseUser,
			Password: testingh.ClickhousePassword,
		}, zerolog.Nop())
		if err != nil {
			return err
		}
		i.storage = ch
		return nil
	})
	i.Require().NoError(err)
	i.Require().NoError(i.storage.Migrate(i.ctx))
	// idempotent
	i.Require().NoError(i.storage.Migrate(i.ctx))
}

func (i *ClickhouseTestSuite) TearDownSuite() {
	i.Assert().NoError(i.storage.Close())
	i.cancelFn()
	i.Assert().NoError(i.container.Purge())
}

func TestClickhouseTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a clickhouse container")
	}
	suite.Run(t, new(ClickhouseTestSuite))
}

func (i *ClickhouseTestSuite) TestStoreEvents() {
	cases := map[string]struct {
		appKey   string
		names    []string
		expected map[string]uint64
	}{
		"single": {
			appKey:   "A-DEV-001",
			names:    []string{"app_started"},
			expected: map[string]uint64{"app_started": 1, "": 1},
		},
		"mixed": {
			appKey:   "A-DEV-002",
			names:    []string{"app_started", "item_created", "item_created", "item_deleted"},
			expected: map[string]uint64{"item_created": 2, "item_deleted": 1, "missing": 0, "": 4},
		},
	}

	for name, tc := range cases {
		tc := tc
		i.Run(name, func() {
			userID := uuid.New()
			events := make([]domain.IngestEvent, len(tc.names))
			for k, n := range tc.names {
				e := domain.IngestEvent{
					Event: domain.NewEvent(time.Now(), userID, "session", n, domain.SystemProps{
						SDKVersion: domain.SDKVersion,
					}, domain.Props{"k": domain.Int(int64(k))}),
				}
				e.EnrichWith(tc.appKey, "127.0.0.1", time.Now())
				events[k] = e
			}

			err := i.storage.StoreEvents(i.ctx, domain.IngestBatch{ID: "session", Events: events})
			i.Require().NoError(err)

			for eventName, count := range tc.expected {
				got, err := i.storage.CountEvents(i.ctx, tc.appKey, eventName)
				i.Require().NoError(err)
				i.Equal(count, got, eventName)
			}
		})
	}
}
