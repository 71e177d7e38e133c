// Package llm generates dataset insights and follow-up answers through
// an OpenAI-compatible chat-completion provider (OpenRouter).
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/riya-shete/csv-analyzer/internal/config"
)

// Sampling and budget constants shared by all generation calls. Low
// temperature keeps the analysis deterministic across regenerations.
const (
	temperature          = 0.3
	insightsMaxTokens    = 1500
	followUpMaxTokens    = 800
	healthProbeMaxTokens = 5
)

// ErrNoChoices is returned when the provider responds successfully but
// with an empty choice list.
var ErrNoChoices = errors.New("no choices in response")

// Completer is the minimal capability the generation layer needs from
// a provider client. Inject a fake in tests to avoid live network calls.
type Completer interface {
	Complete(ctx context.Context, systemMsg, prompt string, maxTokens int) (string, error)
}

// Client wraps an OpenAI-compatible endpoint.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// attributionTransport adds the OpenRouter app-attribution headers to
// every request.
type attributionTransport struct {
	base http.RoundTripper
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("HTTP-Referer", "https://csv-insights.app")
	req.Header.Set("X-Title", "CSV Insights Dashboard")
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewClient creates a provider client for the configured endpoint.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	clientConfig.HTTPClient = &http.Client{
		Transport: &attributionTransport{},
	}

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("llm"),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete runs one chat completion and returns the first choice's
// content. The caller bounds the call with a context deadline.
func (c *Client) Complete(ctx context.Context, systemMsg, prompt string, maxTokens int) (string, error) {
	c.logger.Debug("provider request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("max_tokens", maxTokens))

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMsg},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		c.logger.Error("provider request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Info("provider request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// isTimeout reports whether the provider call failed because its
// deadline expired.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

// statusCode extracts the HTTP status from a provider error, or 0 when
// the failure happened before a response arrived.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
