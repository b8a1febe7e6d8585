// Package planner derives recurring-job triggers from the event calendar.
// For each timed event kind it takes the first matching event's next
// instance, backs off a safety lead from the instance end time, and rewrites
// the job table entry owned by that kind.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/guildops/guildflow/internal/domain"
)

// ErrEventNotScheduled is returned when the calendar holds no active event
// of the requested type. This is normal control flow, not a failure: the
// event simply has not been scheduled by the game yet.
var ErrEventNotScheduled = errors.New("event not scheduled")

// CalendarSource yields the current event calendar (the bronze calendar
// blob, read-only to the planner).
type CalendarSource interface {
	Calendar(ctx context.Context) (domain.EventCalendar, error)
}

// JobTable upserts entries of the recurring job table by identity.
type JobTable interface {
	Upsert(ctx context.Context, job domain.ScheduledJob) error
}

// PlanTrigger computes the trigger for the first calendar event of the given
// type. The lead is subtracted from the instance end time BEFORE projecting
// onto the recurrence fields, so a lead that crosses a minute, hour or day
// boundary is reflected in every projected field.
func PlanTrigger(calendar domain.EventCalendar, eventType string, lead time.Duration) (domain.RecurrenceSpec, time.Time, error) {
	for _, event := range calendar.Events {
		if event.Type != eventType {
			continue
		}
		if len(event.Instances) == 0 {
			return domain.RecurrenceSpec{}, time.Time{}, fmt.Errorf("%s: %w", eventType, ErrEventNotScheduled)
		}
		runAt := event.Instances[0].EndTime.Time().Add(-lead)
		return domain.SpecFromTime(runAt), runAt, nil
	}
	return domain.RecurrenceSpec{}, time.Time{}, fmt.Errorf("%s: %w", eventType, ErrEventNotScheduled)
}

// JobDefinition binds an event type to the job table entry it arms.
type JobDefinition struct {
	EventType string
	Identity  string
	Command   string
}

// Planner re-arms job table entries from the calendar.
type Planner struct {
	source CalendarSource
	table  JobTable
	lead   time.Duration
}

func New(source CalendarSource, table JobTable, leadMinutes int) *Planner {
	if leadMinutes <= 0 {
		leadMinutes = 1
	}
	return &Planner{
		source: source,
		table:  table,
		lead:   time.Duration(leadMinutes) * time.Minute,
	}
}

// Rearm plans a trigger for every definition and upserts the resulting jobs.
// Definitions whose event is not on the calendar are skipped with a log
// line; a failure to read the calendar or to commit an upsert is fatal.
func (p *Planner) Rearm(ctx context.Context, defs []JobDefinition) error {
	calendar, err := p.source.Calendar(ctx)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}

	for _, def := range defs {
		spec, runAt, err := PlanTrigger(calendar, def.EventType, p.lead)
		if errors.Is(err, ErrEventNotScheduled) {
			log.Printf("planner: no %s on the calendar, leaving %s as is", def.EventType, def.Identity)
			continue
		}
		if err != nil {
			return err
		}

		job := domain.ScheduledJob{
			Identity: def.Identity,
			Spec:     spec,
			Command:  def.Command,
			RunAt:    runAt,
		}
		if err := p.table.Upsert(ctx, job); err != nil {
			return fmt.Errorf("arm %s: %w", def.Identity, err)
		}
	}
	return nil
}
