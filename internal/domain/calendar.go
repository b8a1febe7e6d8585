package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EpochMillis is a millisecond UTC epoch timestamp. The game API encodes it
// either as a JSON number or as a quoted decimal string depending on the
// endpoint, so it unmarshals from both.
type EpochMillis int64

func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("epoch millis: %w", err)
	}
	*m = EpochMillis(n)
	return nil
}

// Time converts to a UTC time, truncating sub-second precision.
func (m EpochMillis) Time() time.Time {
	return time.Unix(int64(m)/1000, 0).UTC()
}

// EventInstance is one occurrence of a timed event.
type EventInstance struct {
	EndTime EpochMillis `json:"endTime"`
}

// Event is a game event with its scheduled instances. An active event has a
// non-empty instance list; consumers only look at the first instance.
type Event struct {
	Type      string          `json:"type"`
	Instances []EventInstance `json:"instance"`
}

// EventCalendar is the decoded form of the bronze calendar blob.
type EventCalendar struct {
	Events []Event `json:"events"`
}

// DecodeCalendar parses a raw calendar payload as fetched from the game API.
func DecodeCalendar(raw []byte) (EventCalendar, error) {
	var cal EventCalendar
	if err := json.Unmarshal(raw, &cal); err != nil {
		return EventCalendar{}, fmt.Errorf("decode calendar: %w", err)
	}
	return cal, nil
}

// Timed event types published by the game API.
const (
	EventTypeTerritoryWar    = "TERRITORY_WAR_EVENT"
	EventTypeTerritoryBattle = "TERRITORY_BATTLE_EVENT"
)
