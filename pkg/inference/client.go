package inference

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
	"github.com/cloudwego/eino/schema"
)

// Unresolved is what InterpretClarification returns when no team can be identified.
const Unresolved = ports.UnresolvedTeam

// Client implements ports.TextInference with one completion per call.
type Client struct {
	completer Completer
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.TextInference = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides the clock used for "today" in the answer prompt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client over completer.
func NewClient(completer Completer, opts ...Option) *Client {
	c := &Client{
		completer: completer,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyRelevance asks whether text is about a Premier League squad.
// Any reply containing "yes" counts as relevant.
func (c *Client) ClassifyRelevance(ctx context.Context, text string) (bool, error) {
	out, err := c.complete(ctx, "classify", classifyMessages(text), nil)
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(out), "yes"), nil
}

// ExtractTeamGuess returns the model's raw guess at the team named in text, trimmed.
// The guess is matched against the roster by the caller.
func (c *Client) ExtractTeamGuess(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, "extract", extractMessages(text), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ProposeClarification writes the question asking which of candidates the user meant.
func (c *Client) ProposeClarification(ctx context.Context, candidates []string, text string) (string, error) {
	msgs, err := clarifyMessages(candidates, text)
	return c.complete(ctx, "clarify", msgs, err)
}

// InterpretClarification maps the user's response to a team name.
// An empty or "unknown" answer becomes ports.UnresolvedTeam.
func (c *Client) InterpretClarification(ctx context.Context, request, response string) (string, error) {
	msgs, err := interpretMessages(request, response)
	out, err := c.complete(ctx, "interpret", msgs, err)
	if err != nil {
		return "", err
	}
	out = strings.Trim(strings.TrimSpace(out), `"'.`)
	switch strings.ToUpper(out) {
	case "", "UNKNOWN", ports.UnresolvedTeam:
		return ports.UnresolvedTeam, nil
	}
	return out, nil
}

// SynthesizeAnswer answers question from squad. Ages are computed against the
// client clock (see WithClock).
func (c *Client) SynthesizeAnswer(ctx context.Context, squad *domain.Squad, question string) (string, error) {
	if squad == nil {
		return "", fmt.Errorf("%w: no squad to answer from", domain.ErrInvariantViolation)
	}
	msgs, err := formulateMessages(squad, question, c.now())
	return c.complete(ctx, "formulate", msgs, err)
}

func (c *Client) complete(ctx context.Context, op string, msgs []*schema.Message, buildErr error) (string, error) {
	if buildErr != nil {
		return "", buildErr
	}
	start := time.Now()
	out, err := c.completer.Complete(ctx, msgs)
	if err != nil {
		c.logger.ErrorContext(ctx, "completion failed", "op", op, "err", err)
		return "", fmt.Errorf("%s completion: %w", op, err)
	}
	c.logger.DebugContext(ctx, "completion", "op", op, "chars", len(out), "duration", time.Since(start))
	return out, nil
}
