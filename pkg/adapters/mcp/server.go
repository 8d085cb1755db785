// Package mcp exposes the assistant as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/squadchat"
	"github.com/aretw0/squadchat/internal/logging"
	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "squadchat://graph"

// Service is the part of squadchat.Assistant the tools drive.
type Service interface {
	Handle(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Graph(ctx context.Context, sessionID string) (string, error)
}

// AskResponse is the structured result of ask_squad.
type AskResponse struct {
	SessionID string           `json:"session_id" jsonschema_description:"Send the next message with this id"`
	Kind      domain.ReplyKind `json:"kind" jsonschema_description:"answer, or clarification when the assistant needs the user to name the team"`
	Text      string           `json:"text" jsonschema_description:"The answer or the clarification question"`
}

// Server wraps the assistant as an MCP server.
type Server struct {
	svc       Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance. A nil logger discards.
func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		svc:       svc,
		mcpServer: server.NewMCPServer("squadchat-mcp", squadchat.Version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask_squad",
		mcp.WithDescription("Ask a question about a Premier League squad. "+
			"If the reply kind is 'clarification', send the user's answer with the same session_id."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("session_id", mcp.Description("Conversation id returned by a previous call (optional)")),
		mcp.WithOutputSchema[AskResponse](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the conversation workflow as a Mermaid flowchart."),
		mcp.WithString("session_id", mcp.Description("Highlight where this session is paused (optional)")),
	), s.handleGraph)
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AskResponse, error) {
	message, _ := args["message"].(string)
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		sessionID = squadchat.NewSessionID()
	}

	reply, err := s.svc.Handle(ctx, sessionID, message)
	if err != nil {
		if errors.Is(err, squadchat.ErrInvalidInput) {
			s.logger.Warn("MCP ask_squad: input rejected", "err", err, "size", len(message))
		} else {
			s.logger.Error("MCP ask_squad failed", "session_id", sessionID, "err", err)
		}
		return AskResponse{}, fmt.Errorf("ask_squad failed: %w", err)
	}
	return AskResponse{SessionID: sessionID, Kind: reply.Kind, Text: reply.Text}, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mermaid, err := s.svc.Graph(ctx, request.GetString("session_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph failed: %v", err)), nil
	}
	return mcp.NewToolResultText(mermaid), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Conversation workflow",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		mermaid, err := s.svc.Graph(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to render graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "text/plain",
				Text:     mermaid,
			},
		}, nil
	})
}
