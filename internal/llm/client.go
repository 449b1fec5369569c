// Package llm wraps the upstream probability estimator. The model is
// trusted only for the probability number it returns; action derivation
// happens downstream in the AI filter.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	platformhttp "github.com/polyedge/polyedge/internal/platform/http"
	"github.com/polyedge/polyedge/internal/queue"
)

// Client wraps the OpenAI API client.
type Client struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewClient creates a new OpenAI client.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = openai.GPT4
	}
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: log.With().Str("component", "openai_client").Logger(),
	}
}

// Complete sends a prompt and returns the completion text. Rate-limit
// and server-side failures are classified so the request queue can
// retry them.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Int("prompt_len", len(prompt)).Msg("Sending prompt to OpenAI")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)

	if err != nil {
		c.logger.Error().Err(err).Msg("OpenAI API error")
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("OpenAI returned empty choices")
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps provider errors onto the queue's retry taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("openai: %s: %w", apiErr.Message, queue.ErrRateLimited)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("openai: %s: %w", apiErr.Message,
				&platformhttp.HTTPStatusError{StatusCode: apiErr.HTTPStatusCode})
		}
	}
	return err
}
