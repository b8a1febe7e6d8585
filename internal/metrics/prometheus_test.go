package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusSink_RecordsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.RunStarted("war-leaderboard")
	sink.StageCompleted("war-leaderboard", "bronze-leaderboard", OutcomeSuccess, 2*time.Second)
	sink.StageCompleted("war-leaderboard", "silver-leaderboard", OutcomeFailed, time.Second)
	sink.RunCompleted("war-leaderboard", OutcomeFailed, 3*time.Second)
	sink.JobArmed("TW_EVENT")
	sink.ItemSkipped("player")
	sink.EmitError()

	if got := testutil.ToFloat64(sink.runsTotal.WithLabelValues("war-leaderboard", OutcomeFailed)); got != 1 {
		t.Errorf("runsTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.stagesTotal.WithLabelValues("war-leaderboard", "bronze-leaderboard", OutcomeSuccess)); got != 1 {
		t.Errorf("stagesTotal success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.itemsSkippedTotal.WithLabelValues("player")); got != 1 {
		t.Errorf("itemsSkippedTotal = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.emitErrorsTotal); got != 1 {
		t.Errorf("emitErrorsTotal = %v, want 1", got)
	}
}

func TestPrometheusSink_DoubleRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusSink(reg)
	NewPrometheusSink(reg) // second registration logs and continues
}

func TestNoopSink_ImplementsSink(t *testing.T) {
	var _ Sink = NewNoopSink()
	var _ Sink = &PrometheusSink{}
}
