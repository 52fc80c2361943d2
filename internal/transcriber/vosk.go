package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amanullahtanweer/meeting-summarizer/internal/audio"
)

// voskFrameBytes is the size of each binary audio frame sent to the server.
const voskFrameBytes = 8000

// Vosk recognizes windows against a vosk-server websocket endpoint. Each
// window gets its own connection: config, PCM frames, then EOF.
type Vosk struct {
	serverURL  string
	sampleRate int
	dialer     *websocket.Dialer
	timeout    time.Duration
}

type voskConfig struct {
	Config struct {
		SampleRate int `json:"sample_rate"`
	} `json:"config"`
}

type VoskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Conf  float64 `json:"conf"`
	} `json:"result"`
	Partial string `json:"partial"`
}

func NewVosk(serverURL string, sampleRate int) *Vosk {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &Vosk{
		serverURL:  serverURL,
		sampleRate: sampleRate,
		dialer:     websocket.DefaultDialer,
		timeout:    30 * time.Second,
	}
}

func (v *Vosk) Transcribe(ctx context.Context, samples []float32) (string, error) {
	conn, _, err := v.dialer.DialContext(ctx, v.serverURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Vosk server: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(v.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	// Unblock reads if the session is torn down mid-window.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var cfg voskConfig
	cfg.Config.SampleRate = v.sampleRate
	if err := conn.WriteJSON(cfg); err != nil {
		return "", fmt.Errorf("failed to send config to Vosk: %w", err)
	}

	pcm := audio.Float32ToSlin(samples)
	for off := 0; off < len(pcm); off += voskFrameBytes {
		end := min(off+voskFrameBytes, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return "", fmt.Errorf("failed to send audio to Vosk: %w", err)
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`)); err != nil {
		return "", fmt.Errorf("failed to send EOF to Vosk: %w", err)
	}

	// The server answers with zero or more intermediate finals, then the
	// final result, then closes.
	var texts []string
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if len(texts) > 0 {
				slog.Debug("Vosk connection ended after results", "error", err)
				break
			}
			return "", fmt.Errorf("failed to read Vosk result: %w", err)
		}

		var result VoskResult
		if err := json.Unmarshal(message, &result); err != nil {
			slog.Warn("Failed to parse Vosk result", "error", err)
			continue
		}
		if result.Partial != "" {
			continue
		}
		if t := strings.TrimSpace(result.Text); t != "" {
			texts = append(texts, t)
		}
	}

	return strings.Join(texts, " "), nil
}
