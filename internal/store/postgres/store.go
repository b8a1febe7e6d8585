// Package postgres is the warehouse store. Silver tables live in one schema
// (default "silver"); roster snapshots replace on write, everything else
// appends.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/notify"
	"github.com/guildops/guildflow/internal/silver"
)

// Store implements the silver writer and notify reader interfaces using
// PostgreSQL.
type Store struct {
	db      *sql.DB
	queries queries
}

// New creates a warehouse store on the given connection, with silver tables
// in the named schema.
func New(db *sql.DB, schema string) *Store {
	if schema == "" {
		schema = "silver"
	}
	return &Store{db: db, queries: buildQueries(schema)}
}

// EnsureSchema creates the schema and tables if they do not exist. Safe to
// run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.queries.ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure warehouse schema: %w", err)
		}
	}
	return nil
}

// ReplaceMembers swaps the roster snapshot for the given rows in one
// transaction. An empty slice leaves an empty snapshot.
func (s *Store) ReplaceMembers(ctx context.Context, rows []domain.GuildMemberRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.queries.deleteMembers); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, s.queries.insertMember,
			row.PlayerID,
			row.PlayerName,
			row.JoinTime,
			row.Role,
			row.CapturedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AppendContributions appends one batch of contribution measurements.
func (s *Store) AppendContributions(ctx context.Context, rows []domain.ContributionRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, s.queries.insertContribution,
			row.PlayerID,
			row.Type,
			row.CurrentValue,
			row.LifetimeValue,
			row.CapturedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// AppendLeaderboard appends one event instance's reconciled rows. A re-run
// of the same instance replaces its own rows first, keyed by event date.
func (s *Store) AppendLeaderboard(ctx context.Context, kind string, rows []domain.LeaderboardRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	table, err := s.queries.leaderboardTable(kind)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(queryDeleteLeaderboardDate, table), rows[0].EventDate); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(queryInsertLeaderboardRow, table),
			row.PlayerID,
			row.TotalBanners,
			row.OffensiveBanners,
			row.DefensiveBanners,
			row.RogueActions,
			row.EventDate,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadBlob mirrors one staged blob into a jsonb table keyed by blob path.
// Re-loading the same path overwrites the previous payload.
func (s *Store) LoadBlob(ctx context.Context, table, path string, payload json.RawMessage) error {
	if err := validIdentifier(table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(queryUpsertBlob, s.queries.schema, table),
		path, []byte(payload), time.Now().UTC(),
	)
	return err
}

// LatestSnapshot returns the most recent event's leaderboard joined with
// player names, ordered by total banners descending. Players no longer on
// the roster keep their id as the display name.
func (s *Store) LatestSnapshot(ctx context.Context, kind string) ([]domain.SummaryRow, error) {
	table, err := s.queries.leaderboardTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(queryLatestSnapshot, table, s.queries.membersTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SummaryRow
	for rows.Next() {
		var row domain.SummaryRow
		err := rows.Scan(
			&row.PlayerName,
			&row.TotalBanners,
			&row.OffensiveBanners,
			&row.DefensiveBanners,
			&row.RogueActions,
			&row.EventDate,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var (
	_ silver.MemberWriter       = (*Store)(nil)
	_ silver.ContributionWriter = (*Store)(nil)
	_ silver.LeaderboardWriter  = (*Store)(nil)
	_ silver.BlobMirror         = (*Store)(nil)
	_ notify.Store              = (*Store)(nil)
)
