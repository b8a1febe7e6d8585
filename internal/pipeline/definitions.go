package pipeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/guildops/guildflow/internal/domain"
)

// ErrUnknownPipeline reports a pipeline name with no definition.
var ErrUnknownPipeline = errors.New("unknown pipeline")

// definitions maps each named pipeline to its ordered stages. Every stage
// invokes a subcommand of this same binary, so the subprocess runner only
// needs the args.
var definitions = map[string][]domain.StageSpec{
	"guild-daily": {
		{Name: "bronze-guild", Args: []string{"bronze-guild"}},
		{Name: "silver-guild", Args: []string{"silver-guild"}},
	},
	"war-leaderboard": {
		{Name: "bronze-leaderboard", Args: []string{"bronze-leaderboard", "-kind", domain.LeaderboardKindWar}},
		{Name: "silver-leaderboard", Args: []string{"silver-leaderboard", "-kind", domain.LeaderboardKindWar}},
		{Name: "notify", Args: []string{"notify", "-kind", domain.LeaderboardKindWar}},
	},
	"battle-leaderboard": {
		{Name: "bronze-leaderboard", Args: []string{"bronze-leaderboard", "-kind", domain.LeaderboardKindBattle}},
		{Name: "silver-leaderboard", Args: []string{"silver-leaderboard", "-kind", domain.LeaderboardKindBattle}},
	},
	"calendar-refresh": {
		{Name: "bronze-calendar", Args: []string{"bronze-calendar"}},
		{Name: "schedule", Args: []string{"schedule"}},
	},
}

// Definition returns the ordered stages for a named pipeline.
func Definition(name string) ([]domain.StageSpec, error) {
	stages, ok := definitions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	return stages, nil
}

// Names lists the defined pipelines in stable order.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
