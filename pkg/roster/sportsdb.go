package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/cenkalti/backoff/v4"
)

// ErrAPI is returned when TheSportsDB answers with an unusable response.
var ErrAPI = errors.New("sportsdb api error")

const (
	DefaultBaseURL    = "https://www.thesportsdb.com/api/v2/json"
	DefaultTimeout    = 2 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond

	squadEndpoint = "list/players/%s"
)

// PremierLeagueTeams maps canonical team names to TheSportsDB team ids (season 2025/2026).
var PremierLeagueTeams = map[string]string{
	"wolverhampton wanderers":  "133599",
	"fulham":                   "133600",
	"aston villa":              "133601",
	"liverpool":                "133602",
	"sunderland":               "133603",
	"arsenal":                  "133604",
	"chelsea":                  "133610",
	"manchester united":        "133612",
	"manchester city":          "133613",
	"everton":                  "133615",
	"tottenham hotspur":        "133616",
	"brighton and hove albion": "133619",
	"burnley":                  "133623",
	"crystal palace":           "133632",
	"leeds united":             "133635",
	"west ham united":          "133636",
	"nottingham forest":        "133720",
	"bournemouth":              "134301",
	"brentford":                "134355",
	"newcastle united":         "134777",
}

// SportsDB is a ports.RosterProvider backed by TheSportsDB v2 API.
type SportsDB struct {
	apiKey     string
	baseURL    string
	client     *http.Client
	timeout    time.Duration
	maxRetries uint64
	backoff    time.Duration
	teams      map[string]string
	logger     *slog.Logger
}

// SportsDBOption configures the client.
type SportsDBOption func(*SportsDB)

// WithBaseURL points the client at another server (tests, proxies).
func WithBaseURL(url string) SportsDBOption {
	return func(s *SportsDB) {
		s.baseURL = url
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) SportsDBOption {
	return func(s *SportsDB) {
		s.client = c
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) SportsDBOption {
	return func(s *SportsDB) {
		s.timeout = d
	}
}

// WithRetry sets the retry budget and the initial backoff interval.
func WithRetry(maxRetries uint64, initial time.Duration) SportsDBOption {
	return func(s *SportsDB) {
		s.maxRetries = maxRetries
		s.backoff = initial
	}
}

// WithTeams replaces the team-to-id table.
func WithTeams(teams map[string]string) SportsDBOption {
	return func(s *SportsDB) {
		s.teams = teams
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SportsDBOption {
	return func(s *SportsDB) {
		s.logger = logger
	}
}

// NewSportsDB creates a client authenticated with apiKey.
func NewSportsDB(apiKey string, opts ...SportsDBOption) *SportsDB {
	s := &SportsDB{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		client:     http.DefaultClient,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		teams:      PremierLeagueTeams,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTeams returns the known team names, sorted.
func (s *SportsDB) ListTeams(ctx context.Context) ([]string, error) {
	teams := make([]string, 0, len(s.teams))
	for name := range s.teams {
		teams = append(teams, name)
	}
	sort.Strings(teams)
	return teams, nil
}

type playerList struct {
	List []struct {
		StrPlayer   string `json:"strPlayer"`
		DateBorn    string `json:"dateBorn"`
		StrPosition string `json:"strPosition"`
	} `json:"list"`
}

// GetSquad fetches the current squad of team.
func (s *SportsDB) GetSquad(ctx context.Context, team string) (*domain.Squad, error) {
	id, ok := s.teams[team]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrTeamNotFound, team)
	}

	var body playerList
	if err := s.get(ctx, fmt.Sprintf(squadEndpoint, id), &body); err != nil {
		return nil, err
	}
	if len(body.List) == 0 {
		return nil, fmt.Errorf("%w: no players returned for %q", ErrAPI, team)
	}

	squad := &domain.Squad{Name: team, Players: make([]domain.Player, 0, len(body.List))}
	for _, p := range body.List {
		player := domain.Player{Name: p.StrPlayer, Position: p.StrPosition}
		if p.DateBorn != "" {
			dob, err := domain.ParseDate(p.DateBorn)
			if err != nil {
				s.logger.WarnContext(ctx, "ignoring malformed birth date", "player", p.StrPlayer, "date", p.DateBorn)
			} else {
				player.DateOfBirth = dob
			}
		}
		squad.Players = append(squad.Players, player)
	}
	return squad, nil
}

// get performs a GET with per-attempt timeout and exponential backoff.
// Transport errors, 429 and 5xx responses are retried; anything else fails at once.
func (s *SportsDB) get(ctx context.Context, endpoint string, out any) error {
	url := s.baseURL + "/" + endpoint

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.backoff
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, s.maxRetries), ctx)

	attempt := 0
	op := func() error {
		attempt++
		reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("X-API-KEY", s.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.logger.DebugContext(ctx, "sportsdb request failed", "url", url, "attempt", attempt, "err", err)
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			s.logger.DebugContext(ctx, "sportsdb retryable status", "url", url, "attempt", attempt, "status", resp.StatusCode)
			return fmt.Errorf("%w: %s returned %d", ErrAPI, endpoint, resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("%w: %s returned %d", ErrAPI, endpoint, resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: decoding %s: %w", ErrAPI, endpoint, err))
		}
		return nil
	}

	if err := backoff.Retry(op, retry); err != nil {
		return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	return nil
}
