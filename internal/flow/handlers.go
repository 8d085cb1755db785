package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
)

const (
	// RejectionText answers queries that are not about a team squad.
	RejectionText = "I cannot help you with that. Please ask a question regarding Premier League teams."

	// FailureText answers when the clarification still names no known team.
	FailureText = "Sorry, I could not find the team you were asking about."
)

// Handlers implements the steps of the squad workflow on top of its two collaborators.
type Handlers struct {
	inference ports.TextInference
	roster    ports.RosterProvider
	logger    *slog.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		h.logger = logger
	}
}

// NewHandlers creates the step handlers.
func NewHandlers(inference ports.TextInference, roster ports.RosterProvider, opts ...Option) *Handlers {
	h := &Handlers{
		inference: inference,
		roster:    roster,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Validate classifies whether the query is in scope.
func (h *Handlers) Validate(ctx context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	ok, err := h.inference.ClassifyRelevance(ctx, s.Query)
	if err != nil {
		return s, "", collaborator("classify relevance", err)
	}
	s.Valid = ok
	if !ok {
		s.Answer = RejectionText
		s.Success = false
		return s, domain.OutcomeInvalid, nil
	}
	return s, domain.OutcomeValid, nil
}

// ExtractTeam looks for a known team in the query.
func (h *Handlers) ExtractTeam(ctx context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	guess, err := h.inference.ExtractTeamGuess(ctx, s.Query)
	if err != nil {
		return s, "", collaborator("extract team", err)
	}
	name, found, err := h.resolve(ctx, guess)
	if err != nil {
		return s, "", err
	}
	h.logger.DebugContext(ctx, "team extracted", "guess", guess, "found", found)

	if !found {
		s.TeamName = ""
		s.TeamFound = false
		return s, domain.OutcomeNotFound, nil
	}
	s.TeamName = name
	s.TeamFound = true
	return s, domain.OutcomeFound, nil
}

// Clarify asks the user which team they meant.
func (h *Handlers) Clarify(ctx context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	teams, err := h.roster.ListTeams(ctx)
	if err != nil {
		return s, "", collaborator("list teams", err)
	}
	request, err := h.inference.ProposeClarification(ctx, teams, s.Query)
	if err != nil {
		return s, "", collaborator("propose clarification", err)
	}
	request = strings.TrimSpace(request)
	if request == "" {
		return s, "", collaborator("propose clarification", errors.New("empty clarification request"))
	}
	s.ClarificationRequest = request
	s.ClarificationResponse = ""
	return s, domain.OutcomeNext, nil
}

// InterpretClarification resolves the user's reply to the clarification request.
func (h *Handlers) InterpretClarification(ctx context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	answer, err := h.inference.InterpretClarification(ctx, s.ClarificationRequest, s.ClarificationResponse)
	if err != nil {
		return s, "", collaborator("interpret clarification", err)
	}

	name, found := "", false
	if strings.TrimSpace(answer) != ports.UnresolvedTeam {
		name, found, err = h.resolve(ctx, answer)
		if err != nil {
			return s, "", err
		}
	}
	h.logger.DebugContext(ctx, "clarification interpreted", "answer", answer, "found", found)

	if !found {
		s.TeamName = ""
		s.TeamFound = false
		s.Success = false
		s.Answer = FailureText
		return s, domain.OutcomeUnresolved, nil
	}
	s.TeamName = name
	s.TeamFound = true
	return s, domain.OutcomeFound, nil
}

// FetchSquad loads the roster of the resolved team.
func (h *Handlers) FetchSquad(ctx context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	if !s.TeamFound || s.TeamName == "" {
		return s, "", fmt.Errorf("%w: fetching a squad without a resolved team", domain.ErrInvariantViolation)
	}
	squad, err := h.roster.GetSquad(ctx, s.TeamName)
	if errors.Is(err, domain.ErrTeamNotFound) {
		return s, "", fmt.Errorf("%w: resolved team %q unknown to the roster: %w", domain.ErrInvariantViolation, s.TeamName, err)
	}
	if err != nil {
		return s, "", collaborator("get squad", err)
	}
	if squad == nil {
		return s, "", fmt.Errorf("%w: roster returned no squad for %q", domain.ErrInvariantViolation, s.TeamName)
	}
	s.Squad = squad.Clone()
	return s, domain.OutcomeNext, nil
}

// FormulateResponse writes the final answer from the squad.
func (h *Handlers) FormulateResponse(ctx context.Context, s domain.ConversationState) (domain.ConversationState, domain.Outcome, error) {
	if s.Squad == nil {
		return s, "", fmt.Errorf("%w: formulating an answer without a squad", domain.ErrInvariantViolation)
	}
	answer, err := h.inference.SynthesizeAnswer(ctx, s.Squad, s.Query)
	if err != nil {
		return s, "", collaborator("synthesize answer", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return s, "", collaborator("synthesize answer", errors.New("empty answer"))
	}
	s.Answer = answer
	s.Success = true
	return s, domain.OutcomeNext, nil
}

// InjectClarification stores the user's reply where InterpretClarification reads it.
func InjectClarification(s domain.ConversationState, text string) domain.ConversationState {
	s.ClarificationResponse = text
	return s
}

// resolve normalizes a model-produced name and checks it against the roster listing.
func (h *Handlers) resolve(ctx context.Context, raw string) (string, bool, error) {
	name := domain.NormalizeTeamName(raw)
	if name == "" {
		return "", false, nil
	}
	teams, err := h.roster.ListTeams(ctx)
	if err != nil {
		return "", false, collaborator("list teams", err)
	}
	return name, slices.Contains(teams, name), nil
}

func collaborator(op string, err error) error {
	if errors.Is(err, domain.ErrCollaborator) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrCollaborator, err)
}
