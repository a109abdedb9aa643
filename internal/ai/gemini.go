// Package ai provides the Gemini-backed text generator used by the chat
// service. The client is constructed once at startup and injected; nothing
// in this package holds global state.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

var (
	// ErrMissingAPIKey indicates no Gemini API key was configured.
	ErrMissingAPIKey = errors.New("gemini api key is required")

	// ErrEmptyResponse indicates the model returned no usable text. Treated
	// as retryable by the caller since empty candidates are transient.
	ErrEmptyResponse = errors.New("model returned empty response")
)

// Config contains the Gemini client parameters.
type Config struct {
	// APIKey authenticates against the Gemini API. Required.
	APIKey string

	// Model is the model identifier, e.g. "gemini-2.5-flash".
	Model string

	// Temperature controls sampling randomness.
	Temperature float32

	// MaxTokens caps the response length.
	MaxTokens int

	Logger *slog.Logger
}

// Gemini generates text completions through the Gemini API.
// Safe for concurrent use.
type Gemini struct {
	client *genai.Client
	model  string
	gen    *genai.GenerateContentConfig
	logger *slog.Logger
}

// NewGemini creates a Gemini generator.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model name is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	gen := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Temperature),
		MaxOutputTokens: int32(cfg.MaxTokens),
	}

	return &Gemini{
		client: client,
		model:  cfg.Model,
		gen:    gen,
		logger: logger,
	}, nil
}

// Generate produces a completion for prompt. The prompt already carries the
// system instructions and windowed history as assembled by the chat package,
// so it is sent as a single user content.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.gen)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("gemini response received",
		"model", g.model,
		"response_length", len(text),
	)

	return text, nil
}
