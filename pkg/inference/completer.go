package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrEmptyCompletion is returned when the model answers with no content.
var ErrEmptyCompletion = errors.New("empty completion")

// Completer turns a prompt into a single model reply.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, messages []*schema.Message) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	return f(ctx, messages)
}

// EinoCompleter sends prompts to an eino chat model.
type EinoCompleter struct {
	model model.BaseChatModel
}

// NewEinoCompleter wraps m.
func NewEinoCompleter(m model.BaseChatModel) *EinoCompleter {
	return &EinoCompleter{model: m}
}

func (c *EinoCompleter) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Content, nil
}

// OpenAIConfig selects the OpenAI-compatible model.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// NewOpenAIModel builds an eino chat model for an OpenAI-compatible endpoint.
func NewOpenAIModel(ctx context.Context, cfg OpenAIConfig) (model.ToolCallingChatModel, error) {
	config := &openai.ChatModelConfig{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		config.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai chat model: %w", err)
	}
	return chatModel, nil
}
