package pipeline

import (
	"context"
	"log"

	"github.com/guildops/guildflow/internal/domain"
)

// AnalyticsSink persists stage events for per-day counters.
type AnalyticsSink interface {
	Record(ctx context.Context, event domain.StageEvent) error
}

// RecordEvents drains the event channel into the analytics sink until the
// channel closes or the context is cancelled. Sink errors are logged and
// skipped; analytics never blocks a run.
func RecordEvents(ctx context.Context, events <-chan domain.StageEvent, sink AnalyticsSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := sink.Record(ctx, event); err != nil {
				log.Printf("pipeline: record stage event %s/%s: %v", event.Pipeline, event.Stage, err)
			}
		}
	}
}
