package report

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// Gemini model IDs used for report generation.
const (
	// ModelGemini25Pro is stable, for high-reasoning tasks.
	ModelGemini25Pro = "gemini-2.5-pro"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini3FlashPreview is best for speed + intelligence.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
)

// DefaultModelName is the default Gemini model for interview reports.
// Can be overridden via the GEMINI_MODEL environment variable.
const DefaultModelName = ModelGemini25Flash

// GetModelName returns the Gemini model to use, preferring the GEMINI_MODEL
// environment variable.
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}

// NewGeminiClient creates a Gemini API client authenticated with the given key.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}
