package bronze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/gameapi"
	"github.com/guildops/guildflow/internal/storage"
)

// CalendarFetcher is the slice of the API client the calendar job needs.
type CalendarFetcher interface {
	FetchEvents(ctx context.Context) (gameapi.EventsResponse, error)
}

// CalendarJob fetches the event calendar and stages it under today's
// partition. Any fetch or persistence error is fatal: a stale calendar must
// never be silently passed off as current.
type CalendarJob struct {
	api   CalendarFetcher
	store storage.BlobStore
	clock func() time.Time
}

func NewCalendarJob(api CalendarFetcher, store storage.BlobStore) *CalendarJob {
	return &CalendarJob{api: api, store: store, clock: time.Now}
}

func (j *CalendarJob) Run(ctx context.Context) error {
	resp, err := j.api.FetchEvents(ctx)
	if err != nil {
		return fmt.Errorf("fetch calendar: %w", err)
	}

	path := CalendarPath(j.clock())
	if err := j.store.Upload(ctx, path, resp.Raw); err != nil {
		return fmt.Errorf("stage calendar: %w", err)
	}

	log.Printf("bronze: staged calendar with %d events at %s", len(resp.Calendar.Events), path)
	return nil
}

// CalendarStore reads the staged calendar back for trigger planning. It
// prefers today's snapshot and falls back to yesterday's, since the planner
// may run before the day's calendar job has.
type CalendarStore struct {
	store storage.BlobStore
	clock func() time.Time
}

func NewCalendarStore(store storage.BlobStore) *CalendarStore {
	return &CalendarStore{store: store, clock: time.Now}
}

func (s *CalendarStore) Calendar(ctx context.Context) (domain.EventCalendar, error) {
	today := s.clock().UTC()

	var raw json.RawMessage
	err := s.store.Load(ctx, CalendarPath(today), &raw)
	if errors.Is(err, storage.ErrNotFound) {
		yesterday := today.AddDate(0, 0, -1)
		log.Printf("bronze: no calendar staged today, falling back to %s", yesterday.Format("2006-01-02"))
		err = s.store.Load(ctx, CalendarPath(yesterday), &raw)
	}
	if err != nil {
		return domain.EventCalendar{}, fmt.Errorf("load staged calendar: %w", err)
	}
	return domain.DecodeCalendar(raw)
}
