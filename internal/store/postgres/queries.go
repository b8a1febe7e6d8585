package postgres

import (
	"fmt"

	"github.com/guildops/guildflow/internal/domain"
)

// queries holds the schema-qualified statements. Table names are fixed at
// construction; only values travel as parameters.
type queries struct {
	schema             string
	membersTable       string
	deleteMembers      string
	insertMember       string
	insertContribution string
	ddl                []string
}

func buildQueries(schema string) queries {
	q := queries{
		schema:       schema,
		membersTable: schema + ".guild_members",
	}
	q.deleteMembers = fmt.Sprintf(`DELETE FROM %s.guild_members`, schema)
	q.insertMember = fmt.Sprintf(`
INSERT INTO %s.guild_members (player_id, player_name, join_time, role, captured_at)
VALUES ($1, $2, $3, $4, $5)
`, schema)
	q.insertContribution = fmt.Sprintf(`
INSERT INTO %s.guild_contributions (player_id, type, current_value, lifetime_value, captured_at)
VALUES ($1, $2, $3, $4, $5)
`, schema)
	q.ddl = []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.guild_members (
    player_id   TEXT NOT NULL,
    player_name TEXT NOT NULL,
    join_time   TIMESTAMPTZ NOT NULL,
    role        TEXT NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL
)`, schema),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.guild_contributions (
    player_id      TEXT NOT NULL,
    type           TEXT NOT NULL,
    current_value  BIGINT NOT NULL,
    lifetime_value BIGINT NOT NULL,
    captured_at    TIMESTAMPTZ NOT NULL
)`, schema),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.war_leaderboard (
    player_id         TEXT NOT NULL,
    total_banners     BIGINT NOT NULL,
    offensive_banners BIGINT NOT NULL,
    defensive_banners BIGINT NOT NULL,
    rogue_actions     BIGINT NOT NULL,
    event_date        TIMESTAMPTZ NOT NULL
)`, schema),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.battle_leaderboard (
    player_id         TEXT NOT NULL,
    total_banners     BIGINT NOT NULL,
    offensive_banners BIGINT NOT NULL,
    defensive_banners BIGINT NOT NULL,
    rogue_actions     BIGINT NOT NULL,
    event_date        TIMESTAMPTZ NOT NULL
)`, schema),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.battle_leaderboard_raw (
    path      TEXT PRIMARY KEY,
    payload   JSONB NOT NULL,
    loaded_at TIMESTAMPTZ NOT NULL
)`, schema),
	}
	return q
}

// leaderboardTable maps a leaderboard kind to its schema-qualified table.
func (q queries) leaderboardTable(kind string) (string, error) {
	switch kind {
	case domain.LeaderboardKindWar:
		return q.schema + ".war_leaderboard", nil
	case domain.LeaderboardKindBattle:
		return q.schema + ".battle_leaderboard", nil
	default:
		return "", fmt.Errorf("unknown leaderboard kind %q", kind)
	}
}

// validIdentifier rejects strings unsafe to splice as a table name.
func validIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("table name is required")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("invalid table name %q", name)
		}
	}
	return nil
}

const queryDeleteLeaderboardDate = `
DELETE FROM %s WHERE event_date = $1
`

const queryInsertLeaderboardRow = `
INSERT INTO %s (player_id, total_banners, offensive_banners, defensive_banners, rogue_actions, event_date)
VALUES ($1, $2, $3, $4, $5, $6)
`

const queryUpsertBlob = `
INSERT INTO %s.%s (path, payload, loaded_at)
VALUES ($1, $2, $3)
ON CONFLICT (path) DO UPDATE SET payload = EXCLUDED.payload, loaded_at = EXCLUDED.loaded_at
`

const queryLatestSnapshot = `
SELECT
    COALESCE(m.player_name, l.player_id),
    l.total_banners, l.offensive_banners, l.defensive_banners, l.rogue_actions,
    l.event_date
FROM %[1]s l
LEFT JOIN %[2]s m ON m.player_id = l.player_id
WHERE l.event_date = (SELECT MAX(event_date) FROM %[1]s)
ORDER BY l.total_banners DESC
`
