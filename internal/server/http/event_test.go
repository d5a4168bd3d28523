package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/nomad/internal/domain"
)

type ingestCall struct {
	appKey   string
	events   []domain.IngestEvent
	clientIP string
}

type fakeIngester struct {
	calls chan ingestCall
}

func newFakeIngester() *fakeIngester {
	return &fakeIngester{calls: make(chan ingestCall, 1)}
}

func (f *fakeIngester) Ingest(appKey string, events []domain.IngestEvent, clientIP string, _ time.Time) {
	f.calls <- ingestCall{appKey: appKey, events: events, clientIP: clientIP}
}

const validBatch = `[{
	"timestamp":"2026-03-01T10:00:00Z",
	"userId":"7b0f4a3e-8f2d-4c57-9a55-1d2f3e4a5b6c",
	"sessionId":"abc",
	"eventName":"item_created",
	"systemProps":{"isDebug":true,"locale":"en","osName":"linux","osVersion":"6.1","appVersion":"1.0","appBuildNumber":"1","sdkVersion":"nomad-go@v1","deviceModel":"amd64"},
	"props":{"plan":"pro","seats":4}
}]`

func TestHandler_Events(t *testing.T) {
	cases := map[string]struct {
		appKey       string
		body         string
		expectedCode int
		ingested     bool
	}{
		"ok": {
			appKey:       "A-DEV-000",
			body:         validBatch,
			expectedCode: http.StatusOK,
			ingested:     true,
		},
		"ok - empty batch": {
			appKey:       "A-DEV-000",
			body:         `[]`,
			expectedCode: http.StatusOK,
			ingested:     true,
		},
		"missing app key": {
			body:         validBatch,
			expectedCode: http.StatusUnauthorized,
		},
		"malformed json": {
			appKey:       "A-DEV-000",
			body:         `[{"eventName":`,
			expectedCode: http.StatusBadRequest,
		},
		"nested prop": {
			appKey:       "A-DEV-000",
			body:         `[{"eventName":"x","props":{"a":{"b":1}}}]`,
			expectedCode: http.StatusBadRequest,
		},
		"too large": {
			appKey:       "A-DEV-000",
			body:         `"` + strings.Repeat("a", maxBodyBytes) + `"`,
			expectedCode: http.StatusRequestEntityTooLarge,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			ingester := newFakeIngester()
			srv := httptest.NewServer(New(NewHandler(ingester, zerolog.Nop())).Router())
			defer srv.Close()

			req, err := http.NewRequest(http.MethodPost, srv.URL+EventsPath, bytes.NewBufferString(tc.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			if tc.appKey != "" {
				req.Header.Set(appKeyHeader, tc.appKey)
			}

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.expectedCode, resp.StatusCode)

			if !tc.ingested {
				var apiErr map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
				require.NotEmpty(t, apiErr["message"])
				require.Empty(t, ingester.calls)
				return
			}

			var body eventsResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

			select {
			case call := <-ingester.calls:
				require.Equal(t, tc.appKey, call.appKey)
				require.Equal(t, "127.0.0.1", call.clientIP)
				require.Len(t, call.events, body.Accepted)
			case <-time.After(5 * time.Second):
				t.Fatal("batch was not ingested")
			}
		})
	}
}

func TestHandler_EventsDecodesProps(t *testing.T) {
	ingester := newFakeIngester()
	srv := httptest.NewServer(New(NewHandler(ingester, zerolog.Nop())).Router())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+EventsPath, strings.NewReader(validBatch))
	require.NoError(t, err)
	req.Header.Set(appKeyHeader, "A-DEV-000")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	call := <-ingester.calls
	require.Len(t, call.events, 1)
	e := call.events[0]
	require.Equal(t, "item_created", e.EventName)
	require.Equal(t, "abc", e.SessionID)
	require.Equal(t, "pro", e.Props["plan"].Str())
	require.Equal(t, domain.KindInt, e.Props["seats"].Kind())
	require.Equal(t, "linux", e.SystemProps.OSName)
}

func TestServer_Ready(t *testing.T) {
	srv := httptest.NewServer(New(NewHandler(newFakeIngester(), zerolog.Nop())).Router())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/_/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetClientIP(t *testing.T) {
	cases := map[string]struct {
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		"peer ipv4":      {remoteAddr: "10.1.2.3:5555", expected: "10.1.2.3"},
		"loopback":       {remoteAddr: "[::1]:5555", expected: "127.0.0.1"},
		"peer ipv6":      {remoteAddr: "[2001:db8::1]:5555", expected: "0.0.0.0"},
		"forwarded":      {remoteAddr: "bad", headers: map[string]string{"X-Forwarded-For": "8.8.8.8, 10.0.0.1"}, expected: "8.8.8.8"},
		"original first": {remoteAddr: "bad", headers: map[string]string{"X-Original-Forwarded-For": "1.1.1.1", "X-Forwarded-For": "8.8.8.8"}, expected: "1.1.1.1"},
		"unknown":        {remoteAddr: "bad", expected: "0.0.0.0"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, EventsPath, nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.expected, getClientIP(req))
		})
	}
}

