package squadchat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/squadchat/pkg/domain"
	"github.com/aretw0/squadchat/pkg/ports"
)

// ContentRenderer transforms an answer before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// Chat runs a line-oriented conversation: one input line is one message.
//
// Lines starting with "/" are commands: /quit and /exit stop the loop,
// /new switches to a fresh session id.
type Chat struct {
	Conversation ports.Conversation
	// SessionID is the session the loop starts in; empty means a fresh one.
	// Run never writes it; use Session for the live id.
	SessionID string
	Input     io.Reader
	Output    io.Writer
	Prompt    string
	Renderer  ContentRenderer

	mu      sync.Mutex
	current string
}

// Session returns the session the loop is talking in. It is safe to call
// from another goroutine while Run is active.
func (c *Chat) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == "" {
		return c.SessionID
	}
	return c.current
}

func (c *Chat) setSession(id string) {
	c.mu.Lock()
	c.current = id
	c.mu.Unlock()
}

// Run reads until EOF, a quit command or ctx cancellation.
// Invalid input and collaborator failures are reported and the loop continues.
func (c *Chat) Run(ctx context.Context) error {
	if c.Conversation == nil || c.Input == nil || c.Output == nil {
		return errors.New("chat requires a conversation, input and output")
	}
	sessionID := c.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	c.setSession(sessionID)

	scanner := bufio.NewScanner(c.Input)
	scanner.Buffer(make([]byte, 0, 1024), 1<<20)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.Output, c.Prompt)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/new":
			sessionID = NewSessionID()
			c.setSession(sessionID)
			fmt.Fprintf(c.Output, ">>> New session %s\n", sessionID)
			continue
		}

		reply, err := c.Conversation.Handle(ctx, sessionID, line)
		switch {
		case err == nil:
			if err := c.write(reply); err != nil {
				return err
			}
		case errors.Is(err, ErrInvalidInput):
			fmt.Fprintf(c.Output, ">>> %v\n", err)
		case errors.Is(err, domain.ErrCollaborator):
			fmt.Fprintln(c.Output, ">>> Something went wrong while answering, please send your message again.")
		default:
			return err
		}
	}
}

func (c *Chat) write(reply domain.Reply) error {
	text := reply.Text
	if reply.Kind == domain.ReplyAnswer && c.Renderer != nil {
		rendered, err := c.Renderer(text)
		if err == nil {
			text = rendered
		}
	}
	_, err := fmt.Fprintln(c.Output, strings.TrimRight(text, "\n"))
	return err
}
