package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leshachaplin/nomad/device"
	"github.com/leshachaplin/nomad/tracker"
)

func (i *CollectorTestSuite) TestTracker_SendEvents() {
	cases := map[string]struct {
		appKey   string
		trackers int
		events   int
		mode     tracker.Mode
	}{
		"single tracker": {
			appKey:   "A-DEV-0000000001",
			trackers: 1,
			events:   10,
			mode:     tracker.Debug,
		},
		"many trackers": {
			appKey:   "A-DEV-0000000002",
			trackers: 20,
			events:   50,
			mode:     tracker.Release,
		},
	}

	for name, tc := range cases {
		tc := tc
		i.Run(name, func() {
			ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
			defer cancel()

			wg := &sync.WaitGroup{}
			for k := 0; k < tc.trackers; k++ {
				wg.Add(1)
				go func() {
					defer wg.Done()

					cfg := tracker.NewConfigWithHost(tc.appKey, fmt.Sprintf("http://%s", defaultAddrPublic), tc.mode)
					t, err := tracker.New(cfg,
						tracker.WithUserID(uuid.New()),
						tracker.WithApp(device.App{Version: "1.0.0", BuildNumber: "1"}),
						tracker.WithLogger(zerolog.Nop()),
					)
					if !i.NoError(err) {
						return
					}

					t.TrackEvent("app_started")
					for e := 0; e < tc.events; e++ {
						t.Track("item_created", map[string]any{"n": e, "plan": "pro"})
					}
					i.NoError(t.Close(ctx))
				}()
			}
			wg.Wait()

			expectedCreated := uint64(tc.trackers * tc.events)
			i.Eventually(func() bool {
				created, err := i.storage.CountEvents(ctx, tc.appKey, "item_created")
				if err != nil {
					return false
				}
				started, err := i.storage.CountEvents(ctx, tc.appKey, "app_started")
				if err != nil {
					return false
				}
				return created == expectedCreated && started == uint64(tc.trackers)
			}, 30*time.Second, 500*time.Millisecond)
		})
	}
}
