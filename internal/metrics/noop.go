package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) RunStarted(pipeline string)                                      {}
func (n *NoopSink) RunCompleted(pipeline, outcome string, duration time.Duration)   {}
func (n *NoopSink) StageCompleted(pipeline, stage, outcome string, d time.Duration) {}
func (n *NoopSink) JobArmed(identity string)                                        {}
func (n *NoopSink) ItemSkipped(resource string)                                     {}
func (n *NoopSink) EmitError()                                                      {}
