package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors. If the metrics backend is unavailable, implementations
// log warnings and continue.
type Sink interface {
	// Pipeline metrics
	RunStarted(pipeline string)
	RunCompleted(pipeline, outcome string, duration time.Duration)
	StageCompleted(pipeline, stage, outcome string, duration time.Duration)

	// Planner metrics
	JobArmed(identity string)

	// Bronze ingestion metrics
	ItemSkipped(resource string)

	// Event bus metrics
	EmitError()
}

// Outcome constants shared with the event bus payloads.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)
