package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the state of a pipeline run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCompleted RunStatus = "completed"
)

// StageSpec describes one independently-executable pipeline stage: a
// subcommand of the guildflow binary plus its arguments.
type StageSpec struct {
	Name string
	Args []string
}

// StageResult is the captured outcome of one stage invocation. The pipeline
// surfaces it verbatim and never interprets stage-specific output.
type StageResult struct {
	Name     string
	Duration time.Duration
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Success reports whether the stage exited cleanly.
func (r StageResult) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// PipelineRun records one execution of a staged pipeline.
type PipelineRun struct {
	ID       uuid.UUID
	Pipeline string

	Status      RunStatus
	FailedStage string

	StartedAt  time.Time
	FinishedAt time.Time
	Results    []StageResult
}

// Stage event outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// StageEvent is emitted on the event bus after each stage finishes (or is
// skipped because an earlier stage failed).
type StageEvent struct {
	RunID    uuid.UUID
	Pipeline string
	Stage    string
	Outcome  string
	Duration time.Duration
	At       time.Time
}
