package domain

import (
	"fmt"
	"time"
)

// RecurrenceSpec is a one-shot calendar trigger projected onto the four
// date-bearing cron fields. The year is intentionally absent: the job table
// entry is overwritten by the next calendar refresh long before the same
// date recurs.
type RecurrenceSpec struct {
	Minute     int
	Hour       int
	DayOfMonth int
	Month      int
}

// SpecFromTime projects a UTC instant onto a RecurrenceSpec, discarding the
// year and day-of-week.
func SpecFromTime(t time.Time) RecurrenceSpec {
	t = t.UTC()
	return RecurrenceSpec{
		Minute:     t.Minute(),
		Hour:       t.Hour(),
		DayOfMonth: t.Day(),
		Month:      int(t.Month()),
	}
}

// CronExpression renders the spec in standard five-field cron syntax.
func (s RecurrenceSpec) CronExpression() string {
	return fmt.Sprintf("%d %d %d %d *", s.Minute, s.Hour, s.DayOfMonth, s.Month)
}

// ScheduledJob is one entry of the recurring job table. Identity is the
// unique job name used as the trailing tag on the table line; at most one
// entry per identity may exist at any time.
type ScheduledJob struct {
	Identity string
	Spec     RecurrenceSpec
	Command  string

	// RunAt is the absolute trigger instant the spec was derived from.
	// The job table cannot carry it, but callers log it and it removes the
	// ambiguity of the year-agnostic spec for anything downstream.
	RunAt time.Time
}
