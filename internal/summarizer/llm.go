package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	DefaultMaxTokens = 300

	promptTemplate = "Write a brief summary of the meeting based on the following text:\n\n%s\n\nSUMMARY:"
)

// LLM summarizes through an OpenAI-compatible /chat/completions endpoint,
// such as a local llama.cpp server.
type LLM struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model         string        `json:"model,omitempty"`
	Messages      []chatMessage `json:"messages"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   float64       `json:"temperature"`
	TopP          float64       `json:"top_p"`
	RepeatPenalty float64       `json:"repeat_penalty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewLLM creates a chat-completions summarizer. An empty apiKey falls back
// to LLM_API_KEY.
func NewLLM(baseURL, apiKey, model string, maxTokens int) *LLM {
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &LLM{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (l *LLM) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:         l.model,
		Messages:      []chatMessage{{Role: "user", Content: fmt.Sprintf(promptTemplate, text)}},
		MaxTokens:     l.maxTokens,
		Temperature:   0.7,
		TopP:          0.9,
		RepeatPenalty: 1.1,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	summary := strings.TrimSpace(out.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("empty summary")
	}
	return summary, nil
}
