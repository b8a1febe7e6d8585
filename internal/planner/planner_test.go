package planner

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/testutil"
)

func calendarWith(events ...domain.Event) domain.EventCalendar {
	return domain.EventCalendar{Events: events}
}

func warEvent(endMillis int64) domain.Event {
	return domain.Event{
		Type:      domain.EventTypeTerritoryWar,
		Instances: []domain.EventInstance{{EndTime: domain.EpochMillis(endMillis)}},
	}
}

func TestPlanTrigger_SubtractsLeadBeforeProjecting(t *testing.T) {
	// 1700000000000 ms = 2023-11-14 22:13:20 UTC; minus one minute
	// is 22:12:20, so the projected minute is 12, not 13.
	cal := calendarWith(warEvent(1700000000000))

	spec, runAt, err := PlanTrigger(cal, domain.EventTypeTerritoryWar, time.Minute)
	if err != nil {
		t.Fatalf("PlanTrigger: %v", err)
	}

	want := domain.RecurrenceSpec{Minute: 12, Hour: 22, DayOfMonth: 14, Month: 11}
	if spec != want {
		t.Errorf("spec = %+v, want %+v", spec, want)
	}
	wantRunAt := time.Date(2023, time.November, 14, 22, 12, 20, 0, time.UTC)
	if !runAt.Equal(wantRunAt) {
		t.Errorf("runAt = %v, want %v", runAt, wantRunAt)
	}
}

func TestPlanTrigger_LeadCrossesDayBoundary(t *testing.T) {
	// 2023-11-15 00:00:30 UTC; minus one minute lands on the 14th.
	end := time.Date(2023, time.November, 15, 0, 0, 30, 0, time.UTC)
	cal := calendarWith(warEvent(end.UnixMilli()))

	spec, _, err := PlanTrigger(cal, domain.EventTypeTerritoryWar, time.Minute)
	if err != nil {
		t.Fatalf("PlanTrigger: %v", err)
	}

	want := domain.RecurrenceSpec{Minute: 59, Hour: 23, DayOfMonth: 14, Month: 11}
	if spec != want {
		t.Errorf("spec = %+v, want %+v", spec, want)
	}
}

func TestPlanTrigger_IsPure(t *testing.T) {
	cal := calendarWith(warEvent(1700000000000))

	first, _, err1 := PlanTrigger(cal, domain.EventTypeTerritoryWar, time.Minute)
	second, _, err2 := PlanTrigger(cal, domain.EventTypeTerritoryWar, time.Minute)
	if err1 != nil || err2 != nil {
		t.Fatalf("PlanTrigger errors: %v, %v", err1, err2)
	}
	if first != second {
		t.Errorf("PlanTrigger not deterministic: %+v vs %+v", first, second)
	}
}

func TestPlanTrigger_FirstMatchWins(t *testing.T) {
	cal := calendarWith(
		domain.Event{Type: "OTHER_EVENT"},
		warEvent(1700000000000),
		warEvent(1800000000000),
	)

	_, runAt, err := PlanTrigger(cal, domain.EventTypeTerritoryWar, time.Minute)
	if err != nil {
		t.Fatalf("PlanTrigger: %v", err)
	}
	if runAt.Year() != 2023 {
		t.Errorf("runAt = %v, want the first matching event's time", runAt)
	}
}

func TestPlanTrigger_NotScheduled(t *testing.T) {
	tests := []struct {
		name string
		cal  domain.EventCalendar
	}{
		{"no matching event", calendarWith(domain.Event{Type: "OTHER_EVENT"})},
		{"empty calendar", calendarWith()},
		{"matching event with no instances", calendarWith(domain.Event{Type: domain.EventTypeTerritoryWar})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PlanTrigger(tt.cal, domain.EventTypeTerritoryWar, time.Minute)
			if !errors.Is(err, ErrEventNotScheduled) {
				t.Errorf("error = %v, want ErrEventNotScheduled", err)
			}
		})
	}
}

type fakeSource struct {
	cal domain.EventCalendar
	err error
}

func (s fakeSource) Calendar(ctx context.Context) (domain.EventCalendar, error) {
	return s.cal, s.err
}

type fakeTable struct {
	jobs []domain.ScheduledJob
	err  error
}

func (t *fakeTable) Upsert(ctx context.Context, job domain.ScheduledJob) error {
	if t.err != nil {
		return t.err
	}
	t.jobs = append(t.jobs, job)
	return nil
}

func twoKindDefs() []JobDefinition {
	return []JobDefinition{
		{EventType: domain.EventTypeTerritoryWar, Identity: "TW_EVENT", Command: "/bin/guildflow pipeline war-leaderboard"},
		{EventType: domain.EventTypeTerritoryBattle, Identity: "TB_EVENT", Command: "/bin/guildflow pipeline battle-leaderboard"},
	}
}

func TestRearm_ArmsScheduledAndSkipsUnscheduled(t *testing.T) {
	ctx := testutil.TestContext(t)
	table := &fakeTable{}
	p := New(fakeSource{cal: calendarWith(warEvent(1700000000000))}, table, 1)

	if err := p.Rearm(ctx, twoKindDefs()); err != nil {
		t.Fatalf("Rearm: %v", err)
	}

	if len(table.jobs) != 1 {
		t.Fatalf("jobs upserted = %d, want 1 (battle not on calendar)", len(table.jobs))
	}
	job := table.jobs[0]
	if job.Identity != "TW_EVENT" {
		t.Errorf("identity = %q", job.Identity)
	}
	want := domain.RecurrenceSpec{Minute: 12, Hour: 22, DayOfMonth: 14, Month: 11}
	if !reflect.DeepEqual(job.Spec, want) {
		t.Errorf("spec = %+v, want %+v", job.Spec, want)
	}
}

func TestRearm_CalendarFailureIsFatal(t *testing.T) {
	ctx := testutil.TestContext(t)
	p := New(fakeSource{err: errors.New("blob missing")}, &fakeTable{}, 1)

	if err := p.Rearm(ctx, twoKindDefs()); err == nil {
		t.Fatal("Rearm succeeded without a calendar")
	}
}

func TestRearm_UpsertFailureIsFatal(t *testing.T) {
	ctx := testutil.TestContext(t)
	table := &fakeTable{err: errors.New("table locked")}
	p := New(fakeSource{cal: calendarWith(warEvent(1700000000000))}, table, 1)

	if err := p.Rearm(ctx, twoKindDefs()); err == nil {
		t.Fatal("Rearm succeeded despite upsert failure")
	}
}
