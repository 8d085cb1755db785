package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aretw0/squadchat/pkg/domain"
)

// ErrDuplicateTeam reports two cache entries that name the same team once normalized.
var ErrDuplicateTeam = errors.New("duplicate team in roster cache")

// Local serves squads from a cache file shaped as
// {"team name": [{"name": ..., "date_of_birth": "YYYY-MM-DD", "position": ...}]}.
type Local struct {
	squads map[string][]domain.Player
	teams  []string
}

// LoadLocal reads a cache file written by Export.
func LoadLocal(path string) (*Local, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster cache: %w", err)
	}
	defer f.Close()
	return NewLocal(f)
}

// NewLocal decodes a cache document from r.
func NewLocal(r io.Reader) (*Local, error) {
	var raw map[string][]domain.Player
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode roster cache: %w", err)
	}

	l := &Local{squads: make(map[string][]domain.Player, len(raw))}
	seen := make(map[string]string, len(raw))
	for team, players := range raw {
		name := domain.NormalizeTeamName(team)
		if prev, ok := seen[name]; ok {
			a, b := prev, team
			if b < a {
				a, b = b, a
			}
			return nil, fmt.Errorf("%w: %q and %q are both %q", ErrDuplicateTeam, a, b, name)
		}
		seen[name] = team
		l.squads[name] = players
		l.teams = append(l.teams, name)
	}
	sort.Strings(l.teams)
	return l, nil
}

// ListTeams returns the cached team names, sorted.
func (l *Local) ListTeams(ctx context.Context) ([]string, error) {
	return append([]string(nil), l.teams...), nil
}

// GetSquad returns the cached squad of team.
func (l *Local) GetSquad(ctx context.Context, team string) (*domain.Squad, error) {
	players, ok := l.squads[team]
	if !ok {
		return nil, fmt.Errorf("%w: %q not in local data", domain.ErrTeamNotFound, team)
	}
	squad := &domain.Squad{Name: team, Players: players}
	return squad.Clone(), nil
}
