package ports

import (
	"context"

	"github.com/aretw0/squadchat/pkg/domain"
)

// Conversation is the interface transports (HTTP, MCP, CLI) drive.
type Conversation interface {
	// Handle processes one inbound message for a session and returns
	// either the final answer or a clarification prompt.
	Handle(ctx context.Context, sessionID, text string) (domain.Reply, error)
}
