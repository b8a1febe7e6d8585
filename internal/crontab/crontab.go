// Package crontab owns the recurring job table: a line-oriented cron table
// where every line managed by guildflow carries a trailing `# <identity>`
// tag. Editing is upsert-by-identity over the whole table, committed as a
// single atomic replace.
package crontab

import (
	"fmt"
	"strings"

	"github.com/guildops/guildflow/internal/domain"
)

// Upsert returns a new table with every line tagged with identity removed
// and one freshly formatted line for the job appended. The input table is
// never mutated and lines tagged with other identities keep their order, so
// the caller can hold the current table, apply Upsert, and commit the result
// as one replace operation.
func Upsert(table []string, identity string, spec domain.RecurrenceSpec, command string) []string {
	out := make([]string, 0, len(table)+1)
	for _, line := range table {
		if tag, ok := identityTag(line); ok && tag == identity {
			continue
		}
		out = append(out, line)
	}
	return append(out, FormatLine(spec, command, identity))
}

// FormatLine renders one job table line:
// `<minute> <hour> <day> <month> * <command> # <identity>`.
func FormatLine(spec domain.RecurrenceSpec, command, identity string) string {
	return fmt.Sprintf("%s %s # %s", spec.CronExpression(), command, identity)
}

// identityTag extracts the trailing identity tag of a table line, if any.
func identityTag(line string) (string, bool) {
	idx := strings.LastIndex(line, "#")
	if idx < 0 {
		return "", false
	}
	tag := strings.TrimSpace(line[idx+1:])
	if tag == "" {
		return "", false
	}
	return tag, true
}
