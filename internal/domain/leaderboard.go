package domain

import "time"

// Leaderboard kinds, matching the two timed event types.
const (
	LeaderboardKindWar    = "war"
	LeaderboardKindBattle = "battle"
)

// LeaderboardRow is one silver row per member per event snapshot, the result
// of outer-joining the per-metric collections on the member key. Members
// missing from a collection carry zero for that metric. Snapshots append.
type LeaderboardRow struct {
	PlayerID         string
	TotalBanners     int
	OffensiveBanners int
	DefensiveBanners int
	RogueActions     int
	EventDate        time.Time
}

// SummaryRow is one row of the notification query: the latest snapshot's
// facts joined to the member identity table for display names.
type SummaryRow struct {
	PlayerName       string
	TotalBanners     int
	OffensiveBanners int
	DefensiveBanners int
	RogueActions     int
	EventDate        time.Time
}
