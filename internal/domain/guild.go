package domain

import "time"

// GuildMemberRow is one silver row per guild member. The member table is
// current-state truth: every load fully replaces the previous contents.
type GuildMemberRow struct {
	PlayerID   string
	PlayerName string
	JoinTime   time.Time
	Role       string
	CapturedAt time.Time
}

// ContributionRow is one silver row per member contribution entry. The
// contribution table is a time-series fact table: loads append, never
// replace.
type ContributionRow struct {
	PlayerID      string
	Type          string
	CurrentValue  int64
	LifetimeValue int64
	CapturedAt    time.Time
}
