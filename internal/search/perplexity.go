// Package search answers free-text patient questions through Perplexity's
// OpenAI-compatible chat API.
package search

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"patient-companion-server/internal/config"
)

const systemPrompt = "You are an AI assistant."

// Client calls the chat completion endpoint with a single-question prompt.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClient creates a client for the configured base URL and model.
func NewClient(cfg config.SearchConfig, timeout time.Duration) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	return &Client{
		client:    openai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   timeout,
	}
}

// Answer returns the first choice's content.
func (c *Client) Answer(ctx context.Context, query string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("search response carried no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
