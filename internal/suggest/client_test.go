package suggest

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"quota 429", genai.APIError{Code: 429}, true},
		{"server 500", genai.APIError{Code: 500}, true},
		{"server 503", genai.APIError{Code: 503}, true},
		{"bad request 400", genai.APIError{Code: 400}, false},
		{"unauthorized 401", genai.APIError{Code: 401}, false},
		{"wrapped 429", fmt.Errorf("call failed: %w", genai.APIError{Code: 429}), true},
		{"plain error", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}

func TestJitterBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		j := jitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, retryJitterMax)
	}
}

func TestDefaultGeminiConfig(t *testing.T) {
	cfg := DefaultGeminiConfig("key")
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "gemini-1.5-flash-latest", cfg.Model)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewGeminiClientWithConfigDefaults(t *testing.T) {
	c, err := NewGeminiClientWithConfig(GeminiConfig{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-flash-latest", c.model)
	assert.Equal(t, defaultMaxRetries, c.maxRetries)
	assert.Equal(t, initialRetryDelay, c.retryDelay)
	assert.NotNil(t, c.logger)
}
