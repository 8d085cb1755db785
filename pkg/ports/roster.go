package ports

import (
	"context"

	"github.com/aretw0/squadchat/pkg/domain"
)

// RosterProvider is the source of team listings and squads.
type RosterProvider interface {
	// ListTeams returns the canonical (lower-case) team names.
	ListTeams(ctx context.Context) ([]string, error)

	// GetSquad returns the current squad of a canonical team name.
	// Returns domain.ErrTeamNotFound for names outside ListTeams.
	GetSquad(ctx context.Context, teamName string) (*domain.Squad, error)
}
