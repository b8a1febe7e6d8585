package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/guildops/guildflow/internal/domain"
)

// SubprocessRunner executes each stage as a child process of the given
// binary, passing the stage's args as the command line. The child inherits
// the parent environment so stages see the same configuration.
type SubprocessRunner struct {
	bin string
	env []string
}

func NewSubprocessRunner(bin string) *SubprocessRunner {
	return &SubprocessRunner{bin: bin, env: os.Environ()}
}

func (r *SubprocessRunner) Run(ctx context.Context, spec domain.StageSpec) domain.StageResult {
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.bin, spec.Args...)
	cmd.Env = r.env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := domain.StageResult{
		Name:     spec.Name,
		Duration: time.Since(start),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The process never ran (binary missing, ctx cancelled before
			// start). Mark it distinct from any real exit code.
			result.ExitCode = -1
			result.Err = err
		}
	}
	return result
}
