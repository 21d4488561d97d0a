// Package genai implements the Generation Client: a single-turn round trip
// to a hosted text-generation endpoint. The caller treats the returned text
// as untrusted regardless of the declared success; parsing it is the
// itinerary package's job.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"

	"github.com/jmalhotra/tripforge/backend/internal/domain"
)

// systemPrompt pins the assistant's role; the per-trip instruction carries
// everything else.
const systemPrompt = "You are a travel itinerary generator. You reply with JSON only."

// Generator is the contract the planner consumes: prompt text in, raw
// response text out. No streaming, no multi-turn context.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config carries the knobs for the OpenAI-backed client.
type Config struct {
	// APIKey authenticates against the endpoint. Required.
	APIKey string

	// Model names the completion model. Defaults to "gpt-4o-mini".
	Model string

	// BaseURL overrides the API endpoint. Leave empty for the hosted API;
	// tests point it at an httptest server.
	BaseURL string

	// MaxRetries is the number of additional attempts after the first
	// failure. Defaults to 2. Only transient failures are retried.
	MaxRetries uint64

	// RetryBase is the initial backoff delay. Defaults to 500ms.
	RetryBase time.Duration
}

// OpenAIClient is the production Generator implementation.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	maxRetries uint64
	retryBase  time.Duration
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient constructs an OpenAIClient from cfg, applying defaults
// for any zero-valued optional field.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}
	retryBase := cfg.RetryBase
	if retryBase == 0 {
		retryBase = 500 * time.Millisecond
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(cc),
		model:      model,
		maxRetries: maxRetries,
		retryBase:  retryBase,
	}
}

// Generate sends the prompt as a single chat completion and returns the
// raw response text. Transport errors and 5xx/429 responses are retried
// with exponential backoff; any terminal failure — including an empty or
// absent payload — is reported as domain.ErrGenerationFailed.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.4,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var content string
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if retryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return errors.New("empty completion")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("genai.OpenAIClient.Generate: %w: %v", domain.ErrGenerationFailed, err)
	}

	return content, nil
}

// retryable reports whether err is worth another attempt: server-side
// failures, rate limits, and transport errors. Client errors (4xx other
// than 429) will fail the same way every time.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == 429
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == 429
	}
	// No typed API error means the request never got a response.
	return true
}
