package bronze

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/guildops/guildflow/internal/gameapi"
	"github.com/guildops/guildflow/internal/storage"
)

// GuildFetcher is the slice of the API client the guild job needs.
type GuildFetcher interface {
	FetchGuild(ctx context.Context, guildID string) (gameapi.GuildResponse, error)
	FetchPlayer(ctx context.Context, playerID string) (json.RawMessage, error)
}

// SkipRecorder counts items the job dropped mid-run. Optional; nil disables
// it.
type SkipRecorder interface {
	ItemSkipped(resource string)
}

// GuildJob stages the guild roster and the per-player payload batch for
// today. Per-player fetch failures are logged and skipped so one flaky
// player never loses the rest of the batch. A roster fetch failure degrades
// to staging empty placeholders: downstream sees an explicit empty day, not
// a missing one.
type GuildJob struct {
	api     GuildFetcher
	store   storage.BlobStore
	guildID string
	skips   SkipRecorder
	clock   func() time.Time
}

func NewGuildJob(api GuildFetcher, store storage.BlobStore, guildID string) *GuildJob {
	return &GuildJob{api: api, store: store, guildID: guildID, clock: time.Now}
}

// WithSkipRecorder attaches a skip counter to the job.
func (j *GuildJob) WithSkipRecorder(skips SkipRecorder) *GuildJob {
	j.skips = skips
	return j
}

func (j *GuildJob) Run(ctx context.Context) error {
	day := j.clock()

	resp, err := j.api.FetchGuild(ctx, j.guildID)
	if err != nil {
		log.Printf("bronze: guild %s roster fetch failed, staging empty placeholders: %v", j.guildID, err)
		return j.stageEmpty(ctx, day)
	}

	if err := j.store.Upload(ctx, GuildPath(j.guildID, day), resp.Raw); err != nil {
		return fmt.Errorf("stage guild: %w", err)
	}

	players := make([]json.RawMessage, 0, len(resp.Members))
	for _, member := range resp.Members {
		payload, err := j.api.FetchPlayer(ctx, member.PlayerID)
		if err != nil {
			log.Printf("bronze: skipping player %s (%s): %v", member.PlayerID, member.PlayerName, err)
			if j.skips != nil {
				j.skips.ItemSkipped("player")
			}
			continue
		}
		players = append(players, payload)
	}

	if err := j.store.Upload(ctx, PlayersPath(j.guildID, day), players); err != nil {
		return fmt.Errorf("stage players: %w", err)
	}

	log.Printf("bronze: staged guild %s with %d/%d players", j.guildID, len(players), len(resp.Members))
	return nil
}

// stageEmpty writes an empty roster and player batch for the day. Failing to
// persist even the placeholders is fatal.
func (j *GuildJob) stageEmpty(ctx context.Context, day time.Time) error {
	empty := map[string]any{"member": []any{}}
	if err := j.store.Upload(ctx, GuildPath(j.guildID, day), empty); err != nil {
		return fmt.Errorf("stage empty guild: %w", err)
	}
	if err := j.store.Upload(ctx, PlayersPath(j.guildID, day), []json.RawMessage{}); err != nil {
		return fmt.Errorf("stage empty players: %w", err)
	}
	return nil
}
