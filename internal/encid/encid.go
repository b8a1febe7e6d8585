// Package encid decodes the millisecond timestamp embedded in the opaque
// instance identifiers the game API attaches to timed events
// (e.g. "TW:O1699999999000" or a bare "O1699999999000").
package encid

import (
	"errors"
	"strconv"
	"time"
)

// marker precedes the decimal millisecond run inside an encoded identifier.
const marker = 'O'

// ErrMalformedIdentifier is returned when an identifier carries no decodable
// marker-then-digits run. Callers treat this as a hard parse failure.
var ErrMalformedIdentifier = errors.New("malformed instance identifier")

// DecodeTimestamp returns the epoch-millisecond timestamp embedded in an
// encoded instance identifier. The first occurrence of the marker that is
// immediately followed by at least one decimal digit wins; everything after
// the digit run is ignored.
func DecodeTimestamp(encoded string) (int64, error) {
	for i := 0; i < len(encoded)-1; i++ {
		if encoded[i] != marker || !isDigit(encoded[i+1]) {
			continue
		}
		j := i + 1
		for j < len(encoded) && isDigit(encoded[j]) {
			j++
		}
		ms, err := strconv.ParseInt(encoded[i+1:j], 10, 64)
		if err != nil {
			return 0, ErrMalformedIdentifier
		}
		return ms, nil
	}
	return 0, ErrMalformedIdentifier
}

// EventDate converts a decoded timestamp to its UTC calendar date,
// truncating sub-second precision (millis/1000, not rounded).
func EventDate(ms int64) time.Time {
	t := time.Unix(ms/1000, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
