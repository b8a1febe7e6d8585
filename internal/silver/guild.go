package silver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/guildops/guildflow/internal/bronze"
	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/gameapi"
	"github.com/guildops/guildflow/internal/storage"
)

// MemberWriter replaces the current roster snapshot.
type MemberWriter interface {
	ReplaceMembers(ctx context.Context, rows []domain.GuildMemberRow) error
}

// ContributionWriter appends contribution measurements.
type ContributionWriter interface {
	AppendContributions(ctx context.Context, rows []domain.ContributionRow) error
}

// roleNames maps API member levels to warehouse role names. Unknown levels
// pass through unchanged.
var roleNames = map[string]string{
	"GUILD_LEADER":  "leader",
	"GUILD_OFFICER": "officer",
	"GUILD_MEMBER":  "member",
}

// contributionNames maps API contribution types to warehouse names. Unknown
// types pass through unchanged.
var contributionNames = map[string]string{
	"CONTRIBUTION_TYPE_TRIBUTE":      "ticket",
	"CONTRIBUTION_TYPE_COMMENDATION": "token",
	"CONTRIBUTION_TYPE_DONATION":     "donation",
}

func mapName(names map[string]string, key string) string {
	if mapped, ok := names[key]; ok {
		return mapped
	}
	return key
}

// FlattenMembers builds roster rows from the staged guild payload. Join
// times are epoch seconds in the payload.
func FlattenMembers(members []gameapi.GuildMember, capturedAt time.Time) []domain.GuildMemberRow {
	rows := make([]domain.GuildMemberRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, domain.GuildMemberRow{
			PlayerID:   m.PlayerID,
			PlayerName: m.PlayerName,
			JoinTime:   time.Unix(int64(m.GuildJoinTime), 0).UTC(),
			Role:       mapName(roleNames, m.MemberLevel),
			CapturedAt: capturedAt,
		})
	}
	return rows
}

// FlattenContributions builds one row per member per contribution entry.
func FlattenContributions(members []gameapi.GuildMember, capturedAt time.Time) []domain.ContributionRow {
	var rows []domain.ContributionRow
	for _, m := range members {
		for _, c := range m.MemberContribution {
			rows = append(rows, domain.ContributionRow{
				PlayerID:      m.PlayerID,
				Type:          mapName(contributionNames, c.Type),
				CurrentValue:  int64(c.CurrentValue),
				LifetimeValue: int64(c.LifetimeValue),
				CapturedAt:    capturedAt,
			})
		}
	}
	return rows
}

// GuildTransform promotes today's staged roster. The member table is a
// replace-on-write snapshot; contributions accumulate, one batch per day.
type GuildTransform struct {
	store         storage.BlobStore
	members       MemberWriter
	contributions ContributionWriter
	guildID       string
	clock         func() time.Time
}

func NewGuildTransform(store storage.BlobStore, members MemberWriter, contributions ContributionWriter, guildID string) *GuildTransform {
	return &GuildTransform{
		store:         store,
		members:       members,
		contributions: contributions,
		guildID:       guildID,
		clock:         time.Now,
	}
}

func (t *GuildTransform) Run(ctx context.Context) error {
	now := t.clock().UTC()

	var payload struct {
		Member []gameapi.GuildMember `json:"member"`
	}
	path := bronze.GuildPath(t.guildID, now)
	if err := t.store.Load(ctx, path, &payload); err != nil {
		return fmt.Errorf("load guild blob: %w", err)
	}

	memberRows := FlattenMembers(payload.Member, now)
	if len(memberRows) == 0 {
		log.Printf("silver: guild %s staged an empty roster, replacing snapshot with it", t.guildID)
	}
	if err := t.members.ReplaceMembers(ctx, memberRows); err != nil {
		return fmt.Errorf("replace members: %w", err)
	}

	contributionRows := FlattenContributions(payload.Member, now)
	if len(contributionRows) > 0 {
		if err := t.contributions.AppendContributions(ctx, contributionRows); err != nil {
			return fmt.Errorf("append contributions: %w", err)
		}
	}

	log.Printf("silver: guild %s promoted %d members, %d contributions", t.guildID, len(memberRows), len(contributionRows))
	return nil
}
