package bronze

import (
	"context"
	"fmt"
	"log"

	"github.com/guildops/guildflow/internal/encid"
	"github.com/guildops/guildflow/internal/gameapi"
	"github.com/guildops/guildflow/internal/storage"
)

// LeaderboardFetcher is the slice of the API client the leaderboard job
// needs.
type LeaderboardFetcher interface {
	FetchLeaderboard(ctx context.Context, kind string) (gameapi.LeaderboardResponse, error)
}

// LeaderboardJob stages the leaderboard of the currently running timed
// event. The blob partition date is decoded from the event instance
// identifier, so re-fetching the same instance overwrites its own blob.
type LeaderboardJob struct {
	api     LeaderboardFetcher
	store   storage.BlobStore
	guildID string
}

func NewLeaderboardJob(api LeaderboardFetcher, store storage.BlobStore, guildID string) *LeaderboardJob {
	return &LeaderboardJob{api: api, store: store, guildID: guildID}
}

func (j *LeaderboardJob) Run(ctx context.Context, kind string) error {
	resp, err := j.api.FetchLeaderboard(ctx, kind)
	if err != nil {
		return fmt.Errorf("fetch %s leaderboard: %w", kind, err)
	}

	millis, err := encid.DecodeTimestamp(resp.InstanceID)
	if err != nil {
		return fmt.Errorf("instance %q: %w", resp.InstanceID, err)
	}
	eventDate := encid.EventDate(millis)

	path := LeaderboardPath(j.guildID, kind, eventDate)
	if err := j.store.Upload(ctx, path, resp.Raw); err != nil {
		return fmt.Errorf("stage %s leaderboard: %w", kind, err)
	}

	log.Printf("bronze: staged %s leaderboard for %s at %s", kind, eventDate.Format("2006-01-02"), path)
	return nil
}
