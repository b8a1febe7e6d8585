package crontab

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/guildops/guildflow/internal/domain"
)

// Runner reads and replaces the external scheduler's job table.
type Runner interface {
	// ReadTable returns the current job table, one line per entry. A user
	// with no table yet yields an empty slice, not an error.
	ReadTable(ctx context.Context) ([]string, error)

	// WriteTable atomically replaces the whole job table.
	WriteTable(ctx context.Context, lines []string) error
}

// Validator rejects malformed cron expressions before they reach the table.
type Validator interface {
	Validate(expression string) error
}

// Editor performs upsert-by-identity against the job table. The whole
// read-modify-write is a critical section: concurrent unguarded edits of the
// same table lose updates, so Editor serializes its commits.
type Editor struct {
	mu        sync.Mutex
	runner    Runner
	validator Validator
}

func NewEditor(runner Runner, validator Validator) *Editor {
	return &Editor{runner: runner, validator: validator}
}

// Upsert replaces the job's table entry. Any failure reading or writing
// fails the whole upsert with no partial change visible to the job runner;
// the commit only affects schedule evaluations after it, never
// already-dispatched runs.
func (e *Editor) Upsert(ctx context.Context, job domain.ScheduledJob) error {
	expr := job.Spec.CronExpression()
	if err := e.validator.Validate(expr); err != nil {
		return fmt.Errorf("refusing to schedule %s: %w", job.Identity, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	table, err := e.runner.ReadTable(ctx)
	if err != nil {
		return fmt.Errorf("read job table: %w", err)
	}

	next := Upsert(table, job.Identity, job.Spec, job.Command)

	if err := e.runner.WriteTable(ctx, next); err != nil {
		return fmt.Errorf("write job table: %w", err)
	}

	log.Printf("crontab: upserted %s: %s (fires %s UTC)", job.Identity, expr, job.RunAt.Format("2006-01-02 15:04"))
	return nil
}
