package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Reasoner is the abstract reasoning capability: ask a persona a question,
// get free text back, possibly slowly or not at all. The orchestrator depends
// on this interface so tests can substitute fakes.
type Reasoner interface {
	Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client wraps an OpenAI-compatible API endpoint.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new reasoning client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ask sends a single persona-framed prompt and returns the raw response text.
// Every call builds a fresh message list: no conversational history is ever
// carried between calls, so context size stays bounded by construction.
func (c *Client) Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("reasoning API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("reasoning API returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("reasoning response", "chars", len(text))
	if text == "" {
		return "", fmt.Errorf("reasoning API returned empty response")
	}
	return text, nil
}

// Ping verifies the endpoint is reachable and the model responds.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("reasoning endpoint unreachable: %w", err)
	}
	return nil
}
