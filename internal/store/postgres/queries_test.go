package postgres

import (
	"strings"
	"testing"

	"github.com/guildops/guildflow/internal/domain"
)

func TestLeaderboardTable(t *testing.T) {
	q := buildQueries("silver")

	table, err := q.leaderboardTable(domain.LeaderboardKindWar)
	if err != nil {
		t.Fatalf("leaderboardTable(war) error = %v", err)
	}
	if table != "silver.war_leaderboard" {
		t.Errorf("war table = %q", table)
	}

	if _, err := q.leaderboardTable("raid"); err == nil {
		t.Error("leaderboardTable(raid) error = nil, want unknown kind")
	}
}

func TestBuildQueriesUsesSchema(t *testing.T) {
	q := buildQueries("analytics")
	if !strings.Contains(q.insertMember, "analytics.guild_members") {
		t.Errorf("insertMember not schema-qualified: %s", q.insertMember)
	}
	for _, stmt := range q.ddl {
		if !strings.Contains(stmt, "analytics") {
			t.Errorf("ddl statement not schema-qualified: %s", stmt)
		}
	}
}

func TestValidIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"simple", "battle_leaderboard_raw", false},
		{"empty", "", true},
		{"uppercase", "Raw", true},
		{"injection", "raw; DROP TABLE x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validIdentifier(tt.table)
			if (err != nil) != tt.wantErr {
				t.Errorf("validIdentifier(%q) error = %v, wantErr %v", tt.table, err, tt.wantErr)
			}
		})
	}
}
