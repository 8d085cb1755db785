package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/cloudwego/eino/schema"
)

// AzureCompleter sends prompts to an Azure OpenAI deployment.
type AzureCompleter struct {
	client       *azopenai.Client
	deploymentID string
}

// NewAzureCompleter creates a completer authenticated with an API key.
func NewAzureCompleter(endpoint, apiKey, deploymentID string) (*AzureCompleter, error) {
	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(apiKey), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}
	return &AzureCompleter{client: client, deploymentID: deploymentID}, nil
}

// Complete flattens the messages into one user prompt; every prompt here is a
// single-shot instruction, so roles carry no extra meaning.
func (c *AzureCompleter) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	resp, err := c.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(c.deploymentID),
		Messages: []azopenai.ChatRequestMessageClassification{
			&azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(flatten(messages)),
			},
		},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("azure chat completion: %w", err)
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", ErrEmptyCompletion
}

func flatten(messages []*schema.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		if m == nil || m.Content == "" {
			continue
		}
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}
