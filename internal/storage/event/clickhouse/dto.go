package clickhouse

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/leshachaplin/nomad/internal/domain"
)

type event struct {
	Timestamp      time.Time `ch:"timestamp"`
	ServerTime     time.Time `ch:"server_time"`
	IP             net.IP    `ch:"ip"`
	AppKey         string    `ch:"app_key"`
	UserID         uuid.UUID `ch:"user_id"`
	SessionID      string    `ch:"session_id"`
	EventName      string    `ch:"event_name"`
	IsDebug        bool      `ch:"is_debug"`
	Locale         string    `ch:"locale"`
	OSName         string    `ch:"os_name"`
	OSVersion      string    `ch:"os_version"`
	AppVersion     string    `ch:"app_version"`
	AppBuildNumber string    `ch:"app_build_number"`
	SDKVersion     string    `ch:"sdk_version"`
	DeviceModel    string    `ch:"device_model"`
	Props          string    `ch:"props"`
}

func eventsFromDomain(evnts []domain.IngestEvent) ([]event, error) {
	events := make([]event, len(evnts))
	for i := range evnts {
		e := evnts[i]
		props, err := json.Marshal(e.Props)
		if err != nil {
			return nil, fmt.Errorf("marshal props of %q: %w", e.EventName, err)
		}

		events[i] = event{
			Timestamp:      e.Timestamp.UTC(),
			ServerTime:     e.ServerTime.UTC(),
			IP:             ipv4(e.IP),
			AppKey:         e.AppKey,
			UserID:         e.UserID,
			SessionID:      e.SessionID,
			EventName:      e.EventName,
			IsDebug:        e.SystemProps.IsDebug,
			Locale:         e.SystemProps.Locale,
			OSName:         e.SystemProps.OSName,
			OSVersion:      e.SystemProps.OSVersion,
			AppVersion:     e.SystemProps.AppVersion,
			AppBuildNumber: e.SystemProps.AppBuildNumber,
			SDKVersion:     e.SystemProps.SDKVersion,
			DeviceModel:    e.SystemProps.DeviceModel,
			Props:          string(props),
		}
	}
	return events, nil
}

func ipv4(s string) net.IP {
	if ip := net.ParseIP(s).To4(); ip != nil {
		return ip
	}
	return net.IPv4zero.To4()
}
