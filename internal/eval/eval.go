// Package eval runs batches of questions through the assistant and reports
// how each turn ended.
package eval

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
	"github.com/google/uuid"
)

// Target is the part of squadchat.Assistant an evaluation drives.
type Target interface {
	Handle(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Session(ctx context.Context, sessionID string) (*domain.Checkpoint, error)
}

// Result is the outcome of one question.
type Result struct {
	Suite                string
	Query                string
	Kind                 domain.ReplyKind
	ClarificationRequest string
	Answer               string
	Success              bool
	Err                  error
}

// Header is the first CSV row written by WriteCSV.
var Header = []string{"suite", "query", "kind", "clarification_request", "success", "error"}

// Runner sends every query in its own session. Clarifications are recorded,
// not answered.
type Runner struct {
	target Target
	logger *slog.Logger
}

// NewRunner creates a Runner. A nil logger discards.
func NewRunner(target Target, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{target: target, logger: logger}
}

// TeamSuite builds one query per team known to the roster.
func TeamSuite(ctx context.Context, roster ports.RosterProvider) (Suite, error) {
	teams, err := roster.ListTeams(ctx)
	if err != nil {
		return Suite{}, fmt.Errorf("failed to list teams: %w", err)
	}
	suite := Suite{Name: "all_teams", Queries: make([]string, 0, len(teams))}
	for _, team := range teams {
		suite.Queries = append(suite.Queries, fmt.Sprintf(TeamQuery, team))
	}
	return suite, nil
}

// Run evaluates the suites in order. A failing turn is recorded and the run
// goes on; only cancellation stops it early.
func (r *Runner) Run(ctx context.Context, suites ...Suite) ([]Result, error) {
	var results []Result
	for _, suite := range suites {
		r.logger.InfoContext(ctx, "evaluating suite", "suite", suite.Name, "queries", len(suite.Queries))
		for _, query := range suite.Queries {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			res := r.one(ctx, suite.Name, query)
			r.logger.InfoContext(ctx, "evaluated query",
				"suite", suite.Name, "query", query, "kind", res.Kind, "success", res.Success, "err", res.Err)
			results = append(results, res)
		}
	}
	return results, nil
}

func (r *Runner) one(ctx context.Context, suite, query string) Result {
	res := Result{Suite: suite, Query: query}
	sessionID := "eval-" + uuid.NewString()

	reply, err := r.target.Handle(ctx, sessionID, query)
	if err != nil {
		res.Err = err
		return res
	}
	res.Kind = reply.Kind

	cp, err := r.target.Session(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		res.Err = err
		return res
	}
	if cp != nil {
		res.ClarificationRequest = cp.State.ClarificationRequest
		res.Answer = cp.State.Answer
		res.Success = cp.State.Success
	}
	return res
}

// WriteCSV writes results with Header. Answers are left out because they are long.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		row := []string{res.Suite, res.Query, string(res.Kind), res.ClarificationRequest, strconv.FormatBool(res.Success), errText}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary counts successes per suite.
func Summary(results []Result) map[string][2]int {
	out := make(map[string][2]int)
	for _, res := range results {
		c := out[res.Suite]
		if res.Success {
			c[0]++
		}
		c[1]++
		out[res.Suite] = c
	}
	return out
}
