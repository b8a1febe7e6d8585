package config

import (
	"fmt"
	"sort"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:", len(e))
	for _, err := range e {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Validate checks settings every subcommand depends on. Command-specific
// requirements (warehouse URL for silver loads, webhook URL for notify, and
// so on) are enforced by the command entry points via Require.
func Validate(cfg Config) error {
	var errs ValidationErrors

	if cfg.GuildID == "" {
		errs = append(errs, ValidationError{Field: "GUILD_ID", Message: "required"})
	}
	if cfg.BlobRoot == "" {
		errs = append(errs, ValidationError{Field: "BLOB_ROOT", Message: "required"})
	}

	if cfg.HTTPTimeoutStr != "" {
		if d, err := time.ParseDuration(cfg.HTTPTimeoutStr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "HTTP_TIMEOUT",
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if d <= 0 {
			errs = append(errs, ValidationError{Field: "HTTP_TIMEOUT", Message: "must be positive"})
		}
	}

	if cfg.AnalyticsRetentionStr != "" {
		if d, err := time.ParseDuration(cfg.AnalyticsRetentionStr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "ANALYTICS_RETENTION",
				Message: fmt.Sprintf("invalid duration: %v", err),
			})
		} else if d <= 0 {
			errs = append(errs, ValidationError{Field: "ANALYTICS_RETENTION", Message: "must be positive"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Require returns a ValidationErrors naming every field whose value is
// empty. Fields maps environment variable name to its current value.
func Require(fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for field := range fields {
		names = append(names, field)
	}
	sort.Strings(names)

	var errs ValidationErrors
	for _, field := range names {
		if fields[field] == "" {
			errs = append(errs, ValidationError{Field: field, Message: "required"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
