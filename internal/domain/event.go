package domain

import (
	"time"

	"github.com/google/uuid"
)

// SDKVersion is sent with every event in SystemProps.
const SDKVersion = "nomad-go@v1"

// SystemProps describes the device and runtime an event was tracked on.
type SystemProps struct {
	IsDebug        bool   `json:"isDebug"`
	Locale         string `json:"locale"`
	OSName         string `json:"osName"`
	OSVersion      string `json:"osVersion"`
	AppVersion     string `json:"appVersion"`
	AppBuildNumber string `json:"appBuildNumber"`
	SDKVersion     string `json:"sdkVersion"`
	DeviceModel    string `json:"deviceModel"`
}

// Event is one tracked occurrence. It is built once by NewEvent and never
// mutated afterwards, so it can be shared between goroutines freely.
type Event struct {
	Timestamp   time.Time   `json:"timestamp"`
	UserID      uuid.UUID   `json:"userId"`
	SessionID   string      `json:"sessionId"`
	EventName   string      `json:"eventName"`
	SystemProps SystemProps `json:"systemProps"`
	Props       Props       `json:"props"`
}

func NewEvent(
	timestamp time.Time,
	userID uuid.UUID,
	sessionID string,
	eventName string,
	systemProps SystemProps,
	props Props,
) Event {
	return Event{
		Timestamp:   timestamp.UTC().Truncate(time.Millisecond),
		UserID:      userID,
		SessionID:   sessionID,
		EventName:   eventName,
		SystemProps: systemProps,
		Props:       props.clone(),
	}
}

// Batch is the unit sent to the ingestion endpoint in one request.
type Batch []Event

func (b Batch) Names() []string {
	names := make([]string, len(b))
	for i := range b {
		names[i] = b[i].EventName
	}
	return names
}

// IngestEvent is an event as seen by the collector, enriched on arrival.
type IngestEvent struct {
	Event
	AppKey     string    `json:"appKey"`
	IP         string    `json:"ip"`
	ServerTime time.Time `json:"serverTime"`
}

func (e *IngestEvent) EnrichWith(appKey, clientIP string, serverTime time.Time) {
	e.AppKey = appKey
	e.IP = clientIP
	e.ServerTime = serverTime
}

type IngestBatch struct {
	ID     string        `json:"id"`
	Events []IngestEvent `json:"events"`
}
