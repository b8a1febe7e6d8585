// Package notify publishes the latest event's leaderboard as a narrated
// report to a chat webhook.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"text/tabwriter"

	"github.com/guildops/guildflow/internal/domain"
)

// Store reads the latest reconciled leaderboard snapshot.
type Store interface {
	LatestSnapshot(ctx context.Context, kind string) ([]domain.SummaryRow, error)
}

// Generator narrates a rendered leaderboard table.
type Generator interface {
	Summarize(ctx context.Context, table string) (string, error)
}

// Sender delivers the final message.
type Sender interface {
	Send(ctx context.Context, content string) error
}

// kindLabels maps leaderboard kinds to their report headings.
var kindLabels = map[string]string{
	domain.LeaderboardKindWar:    "TW",
	domain.LeaderboardKindBattle: "TB",
}

// Notifier builds and sends one report per run.
type Notifier struct {
	store  Store
	gen    Generator
	sender Sender
}

func New(store Store, gen Generator, sender Sender) *Notifier {
	return &Notifier{store: store, gen: gen, sender: sender}
}

// Run reads the latest snapshot, narrates it, and sends the report. An
// empty snapshot is fatal and nothing is sent: a report with no data would
// only mask an upstream failure.
func (n *Notifier) Run(ctx context.Context, kind string) error {
	rows, err := n.store.LatestSnapshot(ctx, kind)
	if err != nil {
		return fmt.Errorf("load %s snapshot: %w", kind, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no %s leaderboard rows in the warehouse", kind)
	}

	table := RenderTable(rows)
	text, err := n.gen.Summarize(ctx, table)
	if err != nil {
		return fmt.Errorf("summarize %s snapshot: %w", kind, err)
	}

	label, ok := kindLabels[kind]
	if !ok {
		label = strings.ToUpper(kind)
	}
	content := fmt.Sprintf("**%s - %s**\n\n%s\n\n", label, rows[0].EventDate.Format("2006-01-02"), text)

	if err := n.sender.Send(ctx, content); err != nil {
		return fmt.Errorf("send %s report: %w", kind, err)
	}

	log.Printf("notify: sent %s report covering %d players", kind, len(rows))
	return nil
}

// RenderTable lays the snapshot out as an aligned plain-text table, the
// form the narrator is prompted with.
func RenderTable(rows []domain.SummaryRow) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "player_name\ttotal_banners\toffensive_banners\tdefensive_banners\trogue_actions")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			row.PlayerName,
			row.TotalBanners,
			row.OffensiveBanners,
			row.DefensiveBanners,
			row.RogueActions,
		)
	}
	w.Flush()
	return b.String()
}
