// Package testutils provides deterministic collaborators for workflow tests.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
)

// Inference is a deterministic ports.TextInference.
//
// By default every query is relevant, a team is extracted when its canonical name
// appears in the text, and the clarification reply is resolved the same way. Each
// method can be overridden with the matching Fn field.
type Inference struct {
	Teams []string

	RelevantFn   func(text string) (bool, error)
	ExtractFn    func(text string) (string, error)
	ProposeFn    func(candidates []string, text string) (string, error)
	InterpretFn  func(request, response string) (string, error)
	SynthesizeFn func(squad *domain.Squad, question string) (string, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ ports.TextInference = (*Inference)(nil)

// NewInference returns a stub that recognizes teams.
func NewInference(teams ...string) *Inference {
	return &Inference{Teams: teams}
}

// Calls returns how many times method was invoked.
func (f *Inference) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Inference) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

func (f *Inference) ClassifyRelevance(ctx context.Context, text string) (bool, error) {
	f.record("ClassifyRelevance")
	if f.RelevantFn != nil {
		return f.RelevantFn(text)
	}
	return true, nil
}

func (f *Inference) ExtractTeamGuess(ctx context.Context, text string) (string, error) {
	f.record("ExtractTeamGuess")
	if f.ExtractFn != nil {
		return f.ExtractFn(text)
	}
	return f.match(text), nil
}

func (f *Inference) ProposeClarification(ctx context.Context, candidates []string, text string) (string, error) {
	f.record("ProposeClarification")
	if f.ProposeFn != nil {
		return f.ProposeFn(candidates, text)
	}
	return fmt.Sprintf("Which team did you mean in %q? Options: %s", text, strings.Join(candidates, ", ")), nil
}

func (f *Inference) InterpretClarification(ctx context.Context, request, response string) (string, error) {
	f.record("InterpretClarification")
	if f.InterpretFn != nil {
		return f.InterpretFn(request, response)
	}
	if team := f.match(response); team != "" {
		return strings.ToUpper(team[:1]) + team[1:], nil
	}
	return ports.UnresolvedTeam, nil
}

func (f *Inference) SynthesizeAnswer(ctx context.Context, squad *domain.Squad, question string) (string, error) {
	f.record("SynthesizeAnswer")
	if f.SynthesizeFn != nil {
		return f.SynthesizeFn(squad, question)
	}
	return fmt.Sprintf("%s has %d players.", squad.Name, len(squad.Players)), nil
}

func (f *Inference) match(text string) string {
	lower := strings.ToLower(text)
	for _, team := range f.Teams {
		if strings.Contains(lower, team) {
			return team
		}
	}
	return ""
}

// Roster is an in-memory ports.RosterProvider.
type Roster struct {
	Squads map[string]*domain.Squad

	// Err, when set, is returned by every call.
	Err error
	// SquadErr, when set, is returned by GetSquad only.
	SquadErr error

	mu    sync.Mutex
	calls map[string]int
}

var _ ports.RosterProvider = (*Roster)(nil)

// NewRoster builds a roster holding the given squads, keyed by squad name.
func NewRoster(squads ...*domain.Squad) *Roster {
	r := &Roster{Squads: make(map[string]*domain.Squad, len(squads))}
	for _, s := range squads {
		r.Squads[s.Name] = s
	}
	return r
}

// Calls returns how many times method was invoked.
func (r *Roster) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *Roster) record(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[method]++
}

func (r *Roster) ListTeams(ctx context.Context) ([]string, error) {
	r.record("ListTeams")
	if r.Err != nil {
		return nil, r.Err
	}
	teams := make([]string, 0, len(r.Squads))
	for name := range r.Squads {
		teams = append(teams, name)
	}
	sort.Strings(teams)
	return teams, nil
}

func (r *Roster) GetSquad(ctx context.Context, teamName string) (*domain.Squad, error) {
	r.record("GetSquad")
	if r.Err != nil {
		return nil, r.Err
	}
	if r.SquadErr != nil {
		return nil, r.SquadErr
	}
	s, ok := r.Squads[teamName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTeamNotFound, teamName)
	}
	return s.Clone(), nil
}

// Squad returns a small fixed squad for name.
func Squad(name string) *domain.Squad {
	dob := func(s string) domain.Date {
		d, err := domain.ParseDate(s)
		if err != nil {
			panic(err)
		}
		return d
	}
	return &domain.Squad{
		Name: name,
		Players: []domain.Player{
			{Name: "First Keeper", DateOfBirth: dob("1995-03-01"), Position: "Goalkeeper"},
			{Name: "The Manager", Position: "Manager"},
			{Name: "Solid Back", DateOfBirth: dob("1998-07-12"), Position: "Centre-Back"},
			{Name: "Quick Winger", DateOfBirth: dob("2002-11-30"), Position: "Left Wing"},
		},
	}
}
