package crontab

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guildops/guildflow/internal/domain"
	"github.com/guildops/guildflow/internal/testutil"
)

type fakeRunner struct {
	table    []string
	readErr  error
	writeErr error
	writes   int
}

func (r *fakeRunner) ReadTable(ctx context.Context) ([]string, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	return append([]string(nil), r.table...), nil
}

func (r *fakeRunner) WriteTable(ctx context.Context, lines []string) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.writes++
	r.table = append([]string(nil), lines...)
	return nil
}

type acceptAllValidator struct{}

func (acceptAllValidator) Validate(string) error { return nil }

type rejectAllValidator struct{}

func (rejectAllValidator) Validate(string) error { return errors.New("bad expression") }

func testJob() domain.ScheduledJob {
	return domain.ScheduledJob{
		Identity: "TW_EVENT",
		Spec:     domain.RecurrenceSpec{Minute: 12, Hour: 22, DayOfMonth: 14, Month: 11},
		Command:  "/bin/guildflow pipeline war-leaderboard",
		RunAt:    time.Date(2023, 11, 14, 22, 12, 0, 0, time.UTC),
	}
}

func TestEditor_UpsertCommitsNewTable(t *testing.T) {
	ctx := testutil.TestContext(t)
	runner := &fakeRunner{table: []string{"0 4 * * * /bin/other # OTHER"}}
	editor := NewEditor(runner, acceptAllValidator{})

	if err := editor.Upsert(ctx, testJob()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if runner.writes != 1 {
		t.Fatalf("writes = %d, want 1", runner.writes)
	}
	if len(runner.table) != 2 {
		t.Fatalf("table = %v, want 2 lines", runner.table)
	}
	if !strings.HasSuffix(runner.table[1], "# TW_EVENT") {
		t.Errorf("appended line = %q", runner.table[1])
	}
}

func TestEditor_ReadFailureLeavesTableUntouched(t *testing.T) {
	ctx := testutil.TestContext(t)
	runner := &fakeRunner{readErr: errors.New("table unavailable")}
	editor := NewEditor(runner, acceptAllValidator{})

	if err := editor.Upsert(ctx, testJob()); err == nil {
		t.Fatal("Upsert succeeded despite read failure")
	}
	if runner.writes != 0 {
		t.Errorf("writes = %d, want 0 after read failure", runner.writes)
	}
}

func TestEditor_InvalidExpressionNeverTouchesTable(t *testing.T) {
	ctx := testutil.TestContext(t)
	runner := &fakeRunner{}
	editor := NewEditor(runner, rejectAllValidator{})

	if err := editor.Upsert(ctx, testJob()); err == nil {
		t.Fatal("Upsert succeeded despite invalid expression")
	}
	if runner.writes != 0 {
		t.Errorf("writes = %d, want 0", runner.writes)
	}
}

func TestEditor_WriteFailureSurfaces(t *testing.T) {
	ctx := testutil.TestContext(t)
	runner := &fakeRunner{writeErr: errors.New("commit refused")}
	editor := NewEditor(runner, acceptAllValidator{})

	err := editor.Upsert(ctx, testJob())
	if err == nil || !strings.Contains(err.Error(), "write job table") {
		t.Errorf("Upsert error = %v, want write failure", err)
	}
}
