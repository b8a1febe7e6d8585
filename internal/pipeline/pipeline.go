// Package pipeline runs a fixed ordered list of independently-executable
// stages. Each stage is an isolated failure domain (its own subprocess in
// production); a failed stage halts the run and later stages are never
// invoked. There are no retries and no compensating rollback: artifacts a
// completed stage already wrote remain valid inputs for a manual re-run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/guildops/guildflow/internal/domain"
)

// StageRunner invokes one stage and captures its outcome. Implementations
// never interpret stage output; they only report it.
type StageRunner interface {
	Run(ctx context.Context, spec domain.StageSpec) domain.StageResult
}

// EventEmitter publishes stage events for in-process consumers.
type EventEmitter interface {
	Emit(ctx context.Context, event domain.StageEvent) error
}

// MetricsSink records pipeline metrics. Optional; nil disables it.
type MetricsSink interface {
	RunStarted(pipeline string)
	RunCompleted(pipeline, outcome string, duration time.Duration)
	StageCompleted(pipeline, stage, outcome string, duration time.Duration)
}

// Pipeline is one named staged transform (e.g. war-leaderboard).
type Pipeline struct {
	name    string
	stages  []domain.StageSpec
	runner  StageRunner
	metrics MetricsSink  // optional, nil = disabled
	emitter EventEmitter // optional, nil = disabled
	clock   func() time.Time
}

func New(name string, stages []domain.StageSpec, runner StageRunner) *Pipeline {
	return &Pipeline{
		name:   name,
		stages: stages,
		runner: runner,
		clock:  time.Now,
	}
}

// WithMetrics attaches a metrics sink to the pipeline.
func (p *Pipeline) WithMetrics(sink MetricsSink) *Pipeline {
	p.metrics = sink
	return p
}

// WithEmitter attaches a stage event emitter to the pipeline.
func (p *Pipeline) WithEmitter(emitter EventEmitter) *Pipeline {
	p.emitter = emitter
	return p
}

// Run executes the stages strictly in order. The returned error is non-nil
// exactly when the run did not complete; it names the failing stage. The
// PipelineRun carries every stage's captured result either way.
func (p *Pipeline) Run(ctx context.Context) (domain.PipelineRun, error) {
	run := domain.PipelineRun{
		ID:        uuid.New(),
		Pipeline:  p.name,
		Status:    domain.RunStatusPending,
		StartedAt: p.clock().UTC(),
	}

	if p.metrics != nil {
		p.metrics.RunStarted(p.name)
	}
	log.Printf("pipeline: %s run %s started (%d stages)", p.name, run.ID, len(p.stages))

	run.Status = domain.RunStatusRunning
	for i, stage := range p.stages {
		log.Printf("pipeline: %s stage %s starting", p.name, stage.Name)

		result := p.runner.Run(ctx, stage)
		run.Results = append(run.Results, result)
		p.report(ctx, run.ID, stage.Name, result)

		if result.Success() {
			log.Printf("pipeline: %s stage %s completed (%s)", p.name, stage.Name, result.Duration.Round(10*time.Millisecond))
			continue
		}

		run.Status = domain.RunStatusFailed
		run.FailedStage = stage.Name
		p.skipRemaining(ctx, run.ID, p.stages[i+1:])
		break
	}

	if run.Status == domain.RunStatusRunning {
		run.Status = domain.RunStatusCompleted
	}
	run.FinishedAt = p.clock().UTC()

	if p.metrics != nil {
		p.metrics.RunCompleted(p.name, runOutcome(run.Status), run.FinishedAt.Sub(run.StartedAt))
	}

	if run.Status == domain.RunStatusFailed {
		failed := run.Results[len(run.Results)-1]
		log.Printf("pipeline: %s halted at stage %s (exit=%d err=%v)", p.name, run.FailedStage, failed.ExitCode, failed.Err)
		return run, fmt.Errorf("pipeline %s: stage %s failed", p.name, run.FailedStage)
	}

	log.Printf("pipeline: %s run %s completed", p.name, run.ID)
	return run, nil
}

// report surfaces one stage's captured output and publishes its event.
// Output is logged verbatim; the pipeline never interprets it.
func (p *Pipeline) report(ctx context.Context, runID uuid.UUID, stage string, result domain.StageResult) {
	if result.Stdout != "" {
		log.Printf("pipeline: [%s] stdout:\n%s", stage, result.Stdout)
	}
	if result.Stderr != "" {
		log.Printf("pipeline: [%s] stderr:\n%s", stage, result.Stderr)
	}

	outcome := domain.OutcomeSuccess
	if !result.Success() {
		outcome = domain.OutcomeFailed
	}
	if p.metrics != nil {
		p.metrics.StageCompleted(p.name, stage, outcome, result.Duration)
	}
	p.emit(ctx, domain.StageEvent{
		RunID:    runID,
		Pipeline: p.name,
		Stage:    stage,
		Outcome:  outcome,
		Duration: result.Duration,
		At:       p.clock().UTC(),
	})
}

// skipRemaining publishes skipped events for stages a failure prevented.
func (p *Pipeline) skipRemaining(ctx context.Context, runID uuid.UUID, stages []domain.StageSpec) {
	for _, stage := range stages {
		if p.metrics != nil {
			p.metrics.StageCompleted(p.name, stage.Name, domain.OutcomeSkipped, 0)
		}
		p.emit(ctx, domain.StageEvent{
			RunID:    runID,
			Pipeline: p.name,
			Stage:    stage.Name,
			Outcome:  domain.OutcomeSkipped,
			At:       p.clock().UTC(),
		})
	}
}

func (p *Pipeline) emit(ctx context.Context, event domain.StageEvent) {
	if p.emitter == nil {
		return
	}
	if err := p.emitter.Emit(ctx, event); err != nil {
		log.Printf("pipeline: emit stage event: %v", err)
	}
}

func runOutcome(status domain.RunStatus) string {
	if status == domain.RunStatusCompleted {
		return domain.OutcomeSuccess
	}
	return domain.OutcomeFailed
}
