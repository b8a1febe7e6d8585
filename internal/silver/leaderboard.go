// Package silver turns staged bronze blobs into typed warehouse rows. Every
// transform reads blobs only, never the API, so a silver run can always be
// replayed against what bronze staged.
package silver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/guildops/guildflow/internal/bronze"
	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/encid"
	"github.com/guildops/guildflow/internal/storage"
)

// LeaderboardWriter appends reconciled leaderboard rows.
type LeaderboardWriter interface {
	AppendLeaderboard(ctx context.Context, kind string, rows []domain.LeaderboardRow) error
}

// BlobMirror loads one staged blob verbatim into the warehouse.
type BlobMirror interface {
	LoadBlob(ctx context.Context, table, path string, payload json.RawMessage) error
}

type bannerEntry struct {
	MemberID string           `json:"memberId"`
	Banners  domain.FlexInt64 `json:"banners"`
}

type rogueEntry struct {
	MemberID     string           `json:"memberId"`
	RogueActions domain.FlexInt64 `json:"rogueActions"`
}

// warPayload is the staged war leaderboard blob.
type warPayload struct {
	TerritoryMapID string `json:"territoryMapId"`
	Data           struct {
		TotalBanners   []bannerEntry `json:"totalBanners"`
		AttackBanners  []bannerEntry `json:"attackBanners"`
		DefenseBanners []bannerEntry `json:"defenseBanners"`
		RogueActions   []rogueEntry  `json:"rogueActions"`
	} `json:"data"`
}

// ReconcileWar outer-joins the four per-metric lists on member id. A member
// present in any list gets a row; metrics the member is absent from are zero.
// Row order is first appearance across the lists in metric order.
func ReconcileWar(raw json.RawMessage) ([]domain.LeaderboardRow, time.Time, error) {
	var payload warPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode war leaderboard blob: %w", err)
	}

	millis, err := encid.DecodeTimestamp(payload.TerritoryMapID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("territory map %q: %w", payload.TerritoryMapID, err)
	}
	eventDate := encid.EventDate(millis)

	index := make(map[string]*domain.LeaderboardRow)
	var order []string
	row := func(memberID string) *domain.LeaderboardRow {
		if r, ok := index[memberID]; ok {
			return r
		}
		r := &domain.LeaderboardRow{PlayerID: memberID, EventDate: eventDate}
		index[memberID] = r
		order = append(order, memberID)
		return r
	}

	for _, e := range payload.Data.TotalBanners {
		row(e.MemberID).TotalBanners = int(e.Banners)
	}
	for _, e := range payload.Data.AttackBanners {
		row(e.MemberID).OffensiveBanners = int(e.Banners)
	}
	for _, e := range payload.Data.DefenseBanners {
		row(e.MemberID).DefensiveBanners = int(e.Banners)
	}
	for _, e := range payload.Data.RogueActions {
		row(e.MemberID).RogueActions = int(e.RogueActions)
	}

	rows := make([]domain.LeaderboardRow, 0, len(order))
	for _, memberID := range order {
		rows = append(rows, *index[memberID])
	}
	return rows, eventDate, nil
}

// LeaderboardTransform promotes a staged leaderboard blob. War blobs are
// reconciled into typed rows; battle blobs are mirrored verbatim, their
// schema being externally owned.
type LeaderboardTransform struct {
	store   storage.BlobStore
	writer  LeaderboardWriter
	mirror  BlobMirror
	guildID string
	clock   func() time.Time
}

func NewLeaderboardTransform(store storage.BlobStore, writer LeaderboardWriter, mirror BlobMirror, guildID string) *LeaderboardTransform {
	return &LeaderboardTransform{
		store:   store,
		writer:  writer,
		mirror:  mirror,
		guildID: guildID,
		clock:   time.Now,
	}
}

func (t *LeaderboardTransform) Run(ctx context.Context, kind string) error {
	path, raw, err := t.loadRecent(ctx, kind)
	if err != nil {
		return err
	}

	switch kind {
	case domain.LeaderboardKindWar:
		rows, eventDate, err := ReconcileWar(raw)
		if err != nil {
			return err
		}
		if err := t.writer.AppendLeaderboard(ctx, kind, rows); err != nil {
			return fmt.Errorf("append %s leaderboard: %w", kind, err)
		}
		log.Printf("silver: appended %d %s leaderboard rows for %s", len(rows), kind, eventDate.Format("2006-01-02"))
		return nil
	case domain.LeaderboardKindBattle:
		if err := t.mirror.LoadBlob(ctx, "battle_leaderboard_raw", path, raw); err != nil {
			return fmt.Errorf("mirror %s leaderboard: %w", kind, err)
		}
		log.Printf("silver: mirrored %s leaderboard blob %s", kind, path)
		return nil
	default:
		return fmt.Errorf("unknown leaderboard kind %q", kind)
	}
}

// loadRecent finds the freshest staged blob for the kind: today's event
// partition first, then yesterday's, since the transform usually runs the
// morning after the event ends.
func (t *LeaderboardTransform) loadRecent(ctx context.Context, kind string) (string, json.RawMessage, error) {
	today := t.clock().UTC()
	var raw json.RawMessage

	path := bronze.LeaderboardPath(t.guildID, kind, today)
	err := t.store.Load(ctx, path, &raw)
	if errors.Is(err, storage.ErrNotFound) {
		yesterday := today.AddDate(0, 0, -1)
		log.Printf("silver: no %s leaderboard staged today, falling back to %s", kind, yesterday.Format("2006-01-02"))
		path = bronze.LeaderboardPath(t.guildID, kind, yesterday)
		err = t.store.Load(ctx, path, &raw)
	}
	if err != nil {
		return "", nil, fmt.Errorf("load %s leaderboard blob: %w", kind, err)
	}
	return path, raw, nil
}
