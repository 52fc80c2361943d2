// Package summarizer condenses a meeting transcript into a short summary.
package summarizer

import (
	"context"
	"fmt"
)

// Summarizer produces a summary of transcript text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Func adapts a function to the Summarizer interface.
type Func func(ctx context.Context, text string) (string, error)

func (f Func) Summarize(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Config selects and configures a summarizer.
type Config struct {
	Provider string // "llm" or "extractive"

	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int

	MaxSentences int
}

// New creates the summarizer named by config.Provider.
func New(config Config) (Summarizer, error) {
	switch config.Provider {
	case "llm":
		if config.BaseURL == "" {
			return nil, fmt.Errorf("llm base URL is required")
		}
		return NewLLM(config.BaseURL, config.APIKey, config.Model, config.MaxTokens), nil
	case "extractive", "":
		return NewExtractive(config.MaxSentences), nil
	default:
		return nil, fmt.Errorf("unknown summary provider: %s", config.Provider)
	}
}
