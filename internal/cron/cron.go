// Package cron wraps the robfig/cron parser for the standard five-field
// syntax used by the recurring job table. All evaluation is UTC; the table
// belongs to a host whose cron daemon runs in UTC.
package cron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type Validator struct {
	parser cron.Parser
}

func NewValidator() *Validator {
	return &Validator{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Validate reports whether expression is a well-formed five-field cron
// expression. The job table editor refuses to commit a line that fails this.
func (v *Validator) Validate(expression string) error {
	if _, err := v.parser.Parse(expression); err != nil {
		return fmt.Errorf("parse cron: %w", err)
	}
	return nil
}

// Next returns the first UTC instant after the given time at which the
// expression fires.
func (v *Validator) Next(expression string, after time.Time) (time.Time, error) {
	sched, err := v.parser.Parse(expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron: %w", err)
	}
	return sched.Next(after.UTC()), nil
}
