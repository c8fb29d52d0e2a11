// Package suggest is the Gemini-backed assistant: it proposes test-case
// and schema improvements from a validation report, generates synthetic
// records for a contract, and reverse-engineers a contract from sample
// data. Everything network-facing goes through the Client interface so
// the rest of the package stays testable offline.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Retry configuration for transient Gemini failures.
const (
	defaultMaxRetries = 5
	initialRetryDelay = 2 * time.Second
	retryJitterMax    = 500 * time.Millisecond
)

// Client is the minimal surface the assistant needs from a
// text-generation backend.
type Client interface {
	// Complete sends one prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	// RetryDelay is the first backoff window; it doubles per attempt.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:     apiKey,
		Model:      "gemini-1.5-flash-latest",
		MaxRetries: defaultMaxRetries,
		RetryDelay: initialRetryDelay,
	}
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client     *genai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewGeminiClient creates a Gemini client with default settings.
func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	return NewGeminiClientWithConfig(DefaultGeminiConfig(apiKey))
}

// NewGeminiClientWithConfig creates a Gemini client with custom config.
func NewGeminiClientWithConfig(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-1.5-flash-latest"
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = initialRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:     client,
		model:      model,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
	}, nil
}

// Complete sends the prompt, retrying quota (429) and server-side (5xx)
// failures with exponential backoff plus jitter. Other errors fail
// immediately.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.logger.Debug("gemini call",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.String("model", c.model))

		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err == nil {
			text := resp.Text()
			if strings.TrimSpace(text) == "" {
				return "", fmt.Errorf("gemini returned an empty response")
			}
			return text, nil
		}

		if !isRetryable(err) {
			return "", fmt.Errorf("gemini call failed: %w", err)
		}
		lastErr = err
		if attempt == c.maxRetries {
			break
		}

		wait := c.retryDelay*time.Duration(1<<uint(attempt-1)) + jitter()
		c.logger.Warn("transient gemini error, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("gemini call failed after %d attempts: %w", c.maxRetries, lastErr)
}

// isRetryable reports whether the error is a quota or server-side
// failure worth another attempt.
func isRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return false
}

func jitter() time.Duration {
	return time.Duration(rand.Float64() * float64(retryJitterMax))
}
