package bronze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/gameapi"
	"github.com/guildops/guildflow/internal/storage"
)

// memStore is an in-memory BlobStore recording every upload.
type memStore struct {
	blobs     map[string]any
	uploadErr error
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string]any)}
}

func (m *memStore) Upload(ctx context.Context, path string, v any) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.blobs[path] = v
	return nil
}

func (m *memStore) Load(ctx context.Context, path string, into any) error {
	v, ok := m.blobs[path]
	if !ok {
		return fmt.Errorf("%s: %w", path, storage.ErrNotFound)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}

func (m *memStore) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := m.blobs[path]
	return ok, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testDay = time.Date(2023, 11, 14, 9, 0, 0, 0, time.UTC)

func TestPaths(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"calendar", CalendarPath(testDay), "calendar/2023/11/14/calendar.json.gz"},
		{"guild", GuildPath("G1", testDay), "G1/daily/2023/11/14/guild.json.gz"},
		{"players", PlayersPath("G1", testDay), "G1/daily/2023/11/14/players.json.gz"},
		{"leaderboard", LeaderboardPath("G1", "war", testDay), "G1/events/war/20231114/warleaderboard.json.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

type fakeCalendarFetcher struct {
	resp gameapi.EventsResponse
	err  error
}

func (f *fakeCalendarFetcher) FetchEvents(ctx context.Context) (gameapi.EventsResponse, error) {
	return f.resp, f.err
}

func TestCalendarJobStagesRawPayload(t *testing.T) {
	raw := json.RawMessage(`{"events":[{"type":"TERRITORY_WAR_EVENT","instance":[{"endTime":"1700000000000"}]}]}`)
	cal, err := domain.DecodeCalendar(raw)
	if err != nil {
		t.Fatalf("DecodeCalendar() error = %v", err)
	}

	store := newMemStore()
	job := NewCalendarJob(&fakeCalendarFetcher{resp: gameapi.EventsResponse{Calendar: cal, Raw: raw}}, store)
	job.clock = fixedClock(testDay)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := store.blobs["calendar/2023/11/14/calendar.json.gz"]; !ok {
		t.Error("calendar blob was not staged under today's partition")
	}
}

func TestCalendarJobFetchFailureIsFatal(t *testing.T) {
	job := NewCalendarJob(&fakeCalendarFetcher{err: errors.New("api down")}, newMemStore())
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want fetch failure")
	}
}

func TestCalendarStoreFallsBackToYesterday(t *testing.T) {
	raw := json.RawMessage(`{"events":[{"type":"TERRITORY_WAR_EVENT","instance":[{"endTime":"1700000000000"}]}]}`)
	store := newMemStore()
	yesterday := testDay.AddDate(0, 0, -1)
	store.blobs[CalendarPath(yesterday)] = raw

	cs := NewCalendarStore(store)
	cs.clock = fixedClock(testDay)

	cal, err := cs.Calendar(context.Background())
	if err != nil {
		t.Fatalf("Calendar() error = %v", err)
	}
	if len(cal.Events) != 1 {
		t.Errorf("got %d events, want 1", len(cal.Events))
	}
}

func TestCalendarStoreMissingBothDays(t *testing.T) {
	cs := NewCalendarStore(newMemStore())
	cs.clock = fixedClock(testDay)
	if _, err := cs.Calendar(context.Background()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

type fakeGuildFetcher struct {
	guild      gameapi.GuildResponse
	guildErr   error
	playerErr  map[string]error
	playerHits []string
}

func (f *fakeGuildFetcher) FetchGuild(ctx context.Context, guildID string) (gameapi.GuildResponse, error) {
	return f.guild, f.guildErr
}

func (f *fakeGuildFetcher) FetchPlayer(ctx context.Context, playerID string) (json.RawMessage, error) {
	f.playerHits = append(f.playerHits, playerID)
	if err := f.playerErr[playerID]; err != nil {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"playerId":%q}`, playerID)), nil
}

type countingSkips struct{ skips int }

func (c *countingSkips) ItemSkipped(resource string) { c.skips++ }

func TestGuildJobSkipsFailedPlayer(t *testing.T) {
	api := &fakeGuildFetcher{
		guild: gameapi.GuildResponse{
			Members: []gameapi.GuildMember{
				{PlayerID: "P1", PlayerName: "Ahsoka"},
				{PlayerID: "P2", PlayerName: "Rex"},
			},
			Raw: json.RawMessage(`{"member":[{"playerId":"P1"},{"playerId":"P2"}]}`),
		},
		playerErr: map[string]error{"P2": errors.New("timeout")},
	}
	store := newMemStore()
	skips := &countingSkips{}
	job := NewGuildJob(api, store, "G1").WithSkipRecorder(skips)
	job.clock = fixedClock(testDay)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil on partial fetch", err)
	}

	if _, ok := store.blobs[GuildPath("G1", testDay)]; !ok {
		t.Error("guild blob was not staged")
	}
	var players []json.RawMessage
	if err := store.Load(context.Background(), PlayersPath("G1", testDay), &players); err != nil {
		t.Fatalf("load players: %v", err)
	}
	if len(players) != 1 {
		t.Errorf("staged %d players, want 1", len(players))
	}
	if len(api.playerHits) != 2 {
		t.Errorf("fetched %d players, want 2", len(api.playerHits))
	}
	if skips.skips != 1 {
		t.Errorf("recorded %d skips, want 1", skips.skips)
	}
}

func TestGuildJobRosterFailureStagesPlaceholders(t *testing.T) {
	api := &fakeGuildFetcher{guildErr: errors.New("api down")}
	store := newMemStore()
	job := NewGuildJob(api, store, "G1")
	job.clock = fixedClock(testDay)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want degraded nil", err)
	}

	var guild struct {
		Member []json.RawMessage `json:"member"`
	}
	if err := store.Load(context.Background(), GuildPath("G1", testDay), &guild); err != nil {
		t.Fatalf("load guild placeholder: %v", err)
	}
	if len(guild.Member) != 0 {
		t.Errorf("placeholder roster has %d members, want 0", len(guild.Member))
	}
	var players []json.RawMessage
	if err := store.Load(context.Background(), PlayersPath("G1", testDay), &players); err != nil {
		t.Fatalf("load players placeholder: %v", err)
	}
	if len(players) != 0 {
		t.Errorf("placeholder batch has %d players, want 0", len(players))
	}
}

func TestGuildJobUploadFailureIsFatal(t *testing.T) {
	api := &fakeGuildFetcher{
		guild: gameapi.GuildResponse{Raw: json.RawMessage(`{"member":[]}`)},
	}
	store := newMemStore()
	store.uploadErr = errors.New("disk full")
	job := NewGuildJob(api, store, "G1")
	job.clock = fixedClock(testDay)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want persistence failure")
	}
}

type fakeLeaderboardFetcher struct {
	resp gameapi.LeaderboardResponse
	err  error
}

func (f *fakeLeaderboardFetcher) FetchLeaderboard(ctx context.Context, kind string) (gameapi.LeaderboardResponse, error) {
	return f.resp, f.err
}

func TestLeaderboardJobPartitionsByInstanceDate(t *testing.T) {
	// 1699999999000 ms = 2023-11-14T22:13:19Z, so the partition is 20231114.
	api := &fakeLeaderboardFetcher{resp: gameapi.LeaderboardResponse{
		Kind:       domain.LeaderboardKindWar,
		InstanceID: "TW:O1699999999000",
		Raw:        json.RawMessage(`{"territoryMapId":"TW:O1699999999000"}`),
	}}
	store := newMemStore()
	job := NewLeaderboardJob(api, store, "G1")

	if err := job.Run(context.Background(), domain.LeaderboardKindWar); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := store.blobs["G1/events/war/20231114/warleaderboard.json.gz"]; !ok {
		t.Errorf("leaderboard blob missing, staged keys: %v", keys(store.blobs))
	}
}

func TestLeaderboardJobMalformedInstance(t *testing.T) {
	api := &fakeLeaderboardFetcher{resp: gameapi.LeaderboardResponse{
		Kind:       domain.LeaderboardKindWar,
		InstanceID: "INVALID",
		Raw:        json.RawMessage(`{}`),
	}}
	job := NewLeaderboardJob(api, newMemStore(), "G1")
	if err := job.Run(context.Background(), domain.LeaderboardKindWar); err == nil {
		t.Fatal("Run() error = nil, want malformed identifier")
	}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
