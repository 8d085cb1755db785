package roster_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playersBody = `{"list": [
	{"strPlayer": "David Raya", "dateBorn": "1995-09-15", "strPosition": "Goalkeeper"},
	{"strPlayer": "Bukayo Saka", "dateBorn": "2001-09-05", "strPosition": "Right Winger"},
	{"strPlayer": "Mystery Man", "dateBorn": "unknown", "strPosition": "Manager"}
]}`

func newClient(url string) *roster.SportsDB {
	return roster.NewSportsDB("secret",
		roster.WithBaseURL(url),
		roster.WithRetry(3, time.Millisecond),
		roster.WithTimeout(time.Second),
	)
}

func TestSportsDB_GetSquad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/players/133604", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		_, _ = w.Write([]byte(playersBody))
	}))
	defer srv.Close()

	squad, err := newClient(srv.URL).GetSquad(context.Background(), "arsenal")
	require.NoError(t, err)
	assert.Equal(t, "arsenal", squad.Name)
	require.Len(t, squad.Players, 3)
	assert.Equal(t, "Bukayo Saka", squad.Players[1].Name)
	assert.Equal(t, "Right Winger", squad.Players[1].Position)
	assert.Equal(t, "2001-09-05", squad.Players[1].DateOfBirth.String())
	assert.True(t, squad.Players[2].DateOfBirth.IsZero(), "malformed dates are dropped, not fatal")
}

func TestSportsDB_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(playersBody))
	}))
	defer srv.Close()

	squad, err := newClient(srv.URL).GetSquad(context.Background(), "arsenal")
	require.NoError(t, err)
	assert.Len(t, squad.Players, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSportsDB_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).GetSquad(context.Background(), "chelsea")
	assert.ErrorIs(t, err, roster.ErrAPI)
	assert.Equal(t, int32(4), calls.Load(), "one attempt plus three retries")
}

func TestSportsDB_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).GetSquad(context.Background(), "chelsea")
	assert.ErrorIs(t, err, roster.ErrAPI)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSportsDB_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list": []}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).GetSquad(context.Background(), "fulham")
	assert.ErrorIs(t, err, roster.ErrAPI)
}

func TestSportsDB_Teams(t *testing.T) {
	c := roster.NewSportsDB("k")
	teams, err := c.ListTeams(context.Background())
	require.NoError(t, err)
	assert.Len(t, teams, 20)
	assert.Contains(t, teams, "brighton and hove albion")
	assert.IsNonDecreasing(t, teams)

	_, err = c.GetSquad(context.Background(), "real madrid")
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
}
