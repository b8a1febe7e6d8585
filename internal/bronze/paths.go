// Package bronze stages raw API payloads into date-partitioned blobs. Blobs
// are written as returned by the API (modulo envelope unwrapping done at the
// client boundary) so every downstream transform can be replayed from them.
package bronze

import (
	"fmt"
	"time"
)

// CalendarPath is the blob key for the calendar snapshot of a given day.
func CalendarPath(day time.Time) string {
	d := day.UTC()
	return fmt.Sprintf("calendar/%04d/%02d/%02d/calendar.json.gz", d.Year(), d.Month(), d.Day())
}

// GuildPath is the blob key for a guild's daily roster snapshot.
func GuildPath(guildID string, day time.Time) string {
	d := day.UTC()
	return fmt.Sprintf("%s/daily/%04d/%02d/%02d/guild.json.gz", guildID, d.Year(), d.Month(), d.Day())
}

// PlayersPath is the blob key for the daily per-player payload batch.
func PlayersPath(guildID string, day time.Time) string {
	d := day.UTC()
	return fmt.Sprintf("%s/daily/%04d/%02d/%02d/players.json.gz", guildID, d.Year(), d.Month(), d.Day())
}

// LeaderboardPath is the blob key for one event instance's leaderboard. The
// partition date comes from the instance identifier, not the fetch time, so
// a late fetch still lands on the event's own date.
func LeaderboardPath(guildID, kind string, eventDate time.Time) string {
	d := eventDate.UTC()
	return fmt.Sprintf("%s/events/%s/%04d%02d%02d/%sleaderboard.json.gz", guildID, kind, d.Year(), d.Month(), d.Day(), kind)
}
