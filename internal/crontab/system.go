package crontab

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// SystemRunner drives the host crontab binary.
type SystemRunner struct {
	command string
}

func NewSystemRunner(command string) *SystemRunner {
	if command == "" {
		command = "crontab"
	}
	return &SystemRunner{command: command}
}

func (r *SystemRunner) ReadTable(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, r.command, "-l")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// `crontab -l` exits nonzero when the user has no table yet.
		// That is an empty table, not a read failure.
		if _, ok := err.(*exec.ExitError); ok && stdout.Len() == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%s -l: %v (%s)", r.command, err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimRight(stdout.String(), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (r *SystemRunner) WriteTable(ctx context.Context, lines []string) error {
	cmd := exec.CommandContext(ctx, r.command, "-")
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s -: %v (%s)", r.command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
