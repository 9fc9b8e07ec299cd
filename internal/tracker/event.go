package tracker

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalPrefix marks events that have not been confirmed by the server yet.
const LocalPrefix = "local:"

// DateLayout is the calendar date format used for DateKey.
const DateLayout = "2006-01-02"

// IntakeEvent is a single logged drink.
type IntakeEvent struct {
	ID          string `json:"id"`
	AmountMl    int    `json:"amount_ml"`
	TimestampMs int64  `json:"timestamp_ms"`
	DateKey     string `json:"date_key"`
}

func (e IntakeEvent) IsLocal() bool {
	return IsLocalID(e.ID)
}

func (e IntakeEvent) Time() time.Time {
	return time.UnixMilli(e.TimestampMs)
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalPrefix)
}

func NewLocalID() string {
	return LocalPrefix + uuid.NewString()
}

// DateKey returns the calendar date of ts in loc.
func DateKey(ts int64, loc *time.Location) string {
	return time.UnixMilli(ts).In(loc).Format(DateLayout)
}

// normalize recomputes DateKey; stored keys are never trusted.
func normalize(e IntakeEvent, loc *time.Location) IntakeEvent {
	e.DateKey = DateKey(e.TimestampMs, loc)
	return e
}
