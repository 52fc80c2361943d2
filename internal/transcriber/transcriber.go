package transcriber

import (
	"context"
	"fmt"
)

// Transcriber is the speech-to-text capability. It recognizes one window
// of mono float32 samples at a time.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Func adapts a function to the Transcriber interface.
type Func func(ctx context.Context, samples []float32) (string, error)

func (f Func) Transcribe(ctx context.Context, samples []float32) (string, error) {
	return f(ctx, samples)
}

// Config selects and configures a transcription provider.
type Config struct {
	Provider   string // "vosk", "whisper" or "assemblyai"
	SampleRate int
	Language   string

	VoskServerURL string

	WhisperBaseURL string
	WhisperAPIKey  string
	WhisperModel   string

	AssemblyAIAPIKey string
	AssemblyAIURL    string
}

// New creates the transcriber named by config.Provider.
func New(config Config) (Transcriber, error) {
	switch config.Provider {
	case "vosk":
		if config.VoskServerURL == "" {
			return nil, fmt.Errorf("vosk server URL is required")
		}
		return NewVosk(config.VoskServerURL, config.SampleRate), nil
	case "whisper":
		return NewWhisper(
			WithBaseURL(config.WhisperBaseURL),
			WithAPIKey(config.WhisperAPIKey),
			WithModel(config.WhisperModel),
			WithLanguage(config.Language),
			WithSampleRate(config.SampleRate),
		), nil
	case "assemblyai":
		return NewAssemblyAI(config.AssemblyAIAPIKey, config.AssemblyAIURL, config.SampleRate)
	default:
		return nil, fmt.Errorf("unknown provider: %s", config.Provider)
	}
}
