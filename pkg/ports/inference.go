package ports

import (
	"context"

	"github.com/aretw0/squadchat/pkg/domain"
)

// UnresolvedTeam is returned by InterpretClarification when the exchange names no known team.
const UnresolvedTeam = "UNRESOLVED"

// TextInference is the natural-language collaborator consumed by the workflow steps.
// Every call is a single completion with no context retained across calls.
type TextInference interface {
	// ClassifyRelevance reports whether text asks about a team squad.
	ClassifyRelevance(ctx context.Context, text string) (bool, error)

	// ExtractTeamGuess returns the team name mentioned in text, as written by the model.
	ExtractTeamGuess(ctx context.Context, text string) (string, error)

	// ProposeClarification writes a question naming best-guess candidates for text.
	ProposeClarification(ctx context.Context, candidates []string, text string) (string, error)

	// InterpretClarification resolves the exchange to one team name,
	// or to UnresolvedTeam.
	InterpretClarification(ctx context.Context, request, response string) (string, error)

	// SynthesizeAnswer answers question using only the squad data.
	SynthesizeAnswer(ctx context.Context, squad *domain.Squad, question string) (string, error)
}
