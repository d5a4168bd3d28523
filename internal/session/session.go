// Package session derives day-scoped session identifiers.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
)

const (
	// ReferenceZone pins the day boundary for every device to the same zone,
	// so two devices agree on what "today" is.
	ReferenceZone = "America/Chicago"

	idLength      = 36
	secondsPerDay = 24 * 60 * 60
)

var (
	reference = mustLoadLocation(ReferenceZone)
	epoch     = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// DayOrdinal returns the 1-based number of the calendar day of now in the
// reference zone, counted from 1 January of year 1.
func DayOrdinal(now time.Time) int64 {
	y, m, d := now.In(reference).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return (day.Unix()-epoch.Unix())/secondsPerDay + 1
}

// Generate returns the session id for deviceID on the reference-zone day
// containing now. The result is the first 36 hex characters of
// SHA-256("{DEVICE-ID}-{day}").
func Generate(deviceID uuid.UUID, now time.Time) string {
	input := strings.ToUpper(deviceID.String()) + "-" + strconv.FormatInt(DayOrdinal(now), 10)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:idLength]
}
