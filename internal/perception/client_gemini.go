package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"nlsql/internal/logging"
)

// =============================================================================
// GOOGLE GEMINI CLIENT
// =============================================================================

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		Model:       "gemini-2.0-flash",
		Temperature: 0,
	}
}

// GeminiClient implements LLMClient for the Google Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClientWithConfig creates a new Gemini client with custom config.
func NewGeminiClientWithConfig(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Complete sends a prompt and returns the generated text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	logging.APIDebug("generate_content model=%s prompt_len=%d", c.model, len(prompt))

	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(c.temperature),
		},
	)
	if err != nil {
		logging.APIError("generate_content failed after %v: %v", time.Since(start), err)
		return "", fmt.Errorf("Gemini generate failed: %w", err)
	}

	text := resp.Text()
	logging.API("generate_content model=%s completed in %v (%d chars)", c.model, time.Since(start), len(text))
	return text, nil
}
