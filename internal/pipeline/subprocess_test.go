package pipeline

import (
	"context"
	"testing"

	"github.com/guildops/guildflow/internal/domain"
)

func TestSubprocessRunnerMissingBinary(t *testing.T) {
	runner := NewSubprocessRunner("/nonexistent/guildflow-test-binary")
	result := runner.Run(context.Background(), domain.StageSpec{Name: "extract", Args: []string{"extract"}})

	if result.Success() {
		t.Fatal("run of missing binary reported success")
	}
	if result.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", result.ExitCode)
	}
	if result.Err == nil {
		t.Error("Err = nil, want start failure")
	}
}
