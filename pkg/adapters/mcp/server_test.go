package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/squadchat"
	"github.com/aretw0/squadchat/internal/testutils"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	assistant, err := squadchat.New(
		testutils.NewInference("arsenal"),
		testutils.NewRoster(testutils.Squad("arsenal")),
	)
	require.NoError(t, err)
	return NewServer(assistant, nil)
}

func TestAskSquad_ClarificationRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	first, err := s.handleAsk(ctx, mcp.CallToolRequest{}, map[string]interface{}{"message": "Who plays for the gunners?"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.SessionID)
	assert.Equal(t, domain.ReplyClarification, first.Kind)

	second, err := s.handleAsk(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"message":    "Arsenal",
		"session_id": first.SessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, AskResponse{SessionID: first.SessionID, Kind: domain.ReplyAnswer, Text: "arsenal has 4 players."}, second)
}

func TestAskSquad_RejectsEmptyMessage(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleAsk(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorIs(t, err, squadchat.ErrInvalidInput)
}

func TestGetGraph(t *testing.T) {
	s := newTestServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_graph"
	res, err := s.handleGraph(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph TD")

	req.Params.Arguments = map[string]any{"session_id": "missing"}
	res, err = s.handleGraph(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
