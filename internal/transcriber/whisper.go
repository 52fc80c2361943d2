package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/audio"
)

const (
	DefaultWhisperBase  = "https://api.openai.com/v1"
	DefaultWhisperModel = "whisper-1"
)

// Whisper recognizes windows through an OpenAI-compatible
// /audio/transcriptions endpoint.
type Whisper struct {
	apiKey     string
	baseURL    string
	model      string
	language   string
	sampleRate int
	httpClient *http.Client
}

// WhisperOption configures a Whisper client.
type WhisperOption func(*Whisper)

func WithAPIKey(key string) WhisperOption {
	return func(w *Whisper) { w.apiKey = key }
}

func WithBaseURL(url string) WhisperOption {
	return func(w *Whisper) { w.baseURL = url }
}

func WithModel(model string) WhisperOption {
	return func(w *Whisper) { w.model = model }
}

func WithLanguage(language string) WhisperOption {
	return func(w *Whisper) { w.language = language }
}

func WithSampleRate(rate int) WhisperOption {
	return func(w *Whisper) { w.sampleRate = rate }
}

func WithHTTPClient(c *http.Client) WhisperOption {
	return func(w *Whisper) { w.httpClient = c }
}

// NewWhisper creates a client. The API key falls back to OPENAI_API_KEY.
func NewWhisper(opts ...WhisperOption) *Whisper {
	w := &Whisper{}
	for _, opt := range opts {
		opt(w)
	}
	if w.apiKey == "" {
		w.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if w.baseURL == "" {
		w.baseURL = DefaultWhisperBase
	}
	if w.model == "" {
		w.model = DefaultWhisperModel
	}
	if w.sampleRate <= 0 {
		w.sampleRate = audio.DefaultSampleRate
	}
	if w.httpClient == nil {
		w.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return w
}

func (w *Whisper) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wavData, err := audio.EncodeWAV(samples, w.sampleRate)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	part, err := mp.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("whisper: write form file: %w", err)
	}
	_ = mp.WriteField("model", w.model)
	_ = mp.WriteField("response_format", "json")
	if w.language != "" {
		_ = mp.WriteField("language", w.language)
	}
	mp.Close()

	url := strings.TrimRight(w.baseURL, "/") + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	req.Header.Set("Content-Type", mp.FormDataContentType())
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("whisper: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("whisper: decode response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}
