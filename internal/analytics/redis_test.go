package analytics

import (
	"testing"
	"time"
)

func TestBuildKey_DailyBucket(t *testing.T) {
	at := time.Date(2023, time.November, 14, 22, 12, 0, 0, time.UTC)
	got := buildKey("war-leaderboard", "notify", "success", at)
	want := "gf:war-leaderboard:notify:success:20231114"
	if got != want {
		t.Errorf("buildKey = %q, want %q", got, want)
	}
}

func TestBuildKey_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:30 on the 15th in UTC+5 is still the 14th in UTC.
	at := time.Date(2023, time.November, 15, 2, 30, 0, 0, loc)
	got := buildKey("guild-daily", "bronze-guild", "failed", at)
	want := "gf:guild-daily:bronze-guild:failed:20231114"
	if got != want {
		t.Errorf("buildKey = %q, want %q", got, want)
	}
}
