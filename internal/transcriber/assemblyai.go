package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amanullahtanweer/meeting-summarizer/internal/audio"
)

const (
	AssemblyAIWebSocketURL = "wss://streaming.assemblyai.com/v3/ws"
	// AssemblyAI requires chunks between 50ms and 1000ms
	MinChunkDurationMs = 50
	MaxChunkDurationMs = 950
)

// AssemblyAI recognizes windows against the AssemblyAI streaming API.
// Each window opens a session, streams its audio, terminates the session
// and joins the formatted turns.
type AssemblyAI struct {
	url        string
	apiKey     string
	sampleRate int
	dialer     *websocket.Dialer
	timeout    time.Duration
}

// AssemblyAIMessage covers the Begin, Turn and Termination events as well
// as the outgoing Terminate request.
type AssemblyAIMessage struct {
	Type               string  `json:"type"`
	ID                 string  `json:"id,omitempty"`
	ExpiresAt          int64   `json:"expires_at,omitempty"`
	Transcript         string  `json:"transcript,omitempty"`
	TurnIsFormatted    bool    `json:"turn_is_formatted,omitempty"`
	AudioDurationSec   float64 `json:"audio_duration_seconds,omitempty"`
	SessionDurationSec float64 `json:"session_duration_seconds,omitempty"`
}

// NewAssemblyAI creates a client. The API key falls back to
// ASSEMBLYAI_API_KEY; an empty url selects the public endpoint.
func NewAssemblyAI(apiKey, url string, sampleRate int) (*AssemblyAI, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("AssemblyAI API key is required")
	}
	if url == "" {
		url = AssemblyAIWebSocketURL
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	return &AssemblyAI{
		url:        url,
		apiKey:     apiKey,
		sampleRate: sampleRate,
		dialer:     websocket.DefaultDialer,
		timeout:    30 * time.Second,
	}, nil
}

// chunkBounds returns the frame size limits in bytes of 16-bit mono PCM.
func (a *AssemblyAI) chunkBounds() (minBytes, maxBytes int) {
	bytesPerMs := a.sampleRate * 2 / 1000
	return MinChunkDurationMs * bytesPerMs, MaxChunkDurationMs * bytesPerMs
}

func (a *AssemblyAI) Transcribe(ctx context.Context, samples []float32) (string, error) {
	url := fmt.Sprintf("%s?sample_rate=%d&format_turns=true", a.url, a.sampleRate)
	header := http.Header{}
	header.Add("Authorization", a.apiKey)

	conn, _, err := a.dialer.DialContext(ctx, url, header)
	if err != nil {
		return "", fmt.Errorf("failed to connect to AssemblyAI: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(a.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetWriteDeadline(deadline)
	conn.SetReadDeadline(deadline)

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	pcm := audio.Float32ToSlin(samples)
	minChunk, maxChunk := a.chunkBounds()
	for len(pcm) > 0 {
		n := min(len(pcm), maxChunk)
		// Fold a short tail into this frame rather than send it alone.
		if rest := len(pcm) - n; rest > 0 && rest < minChunk {
			n = len(pcm) - minChunk
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[:n]); err != nil {
			return "", fmt.Errorf("failed to send audio to AssemblyAI: %w", err)
		}
		pcm = pcm[n:]
	}

	if err := conn.WriteJSON(AssemblyAIMessage{Type: "Terminate"}); err != nil {
		return "", fmt.Errorf("failed to send Terminate to AssemblyAI: %w", err)
	}

	var turns []string
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
			if len(turns) > 0 {
				slog.Debug("AssemblyAI connection ended after results", "error", err)
				break
			}
			return "", fmt.Errorf("failed to read AssemblyAI message: %w", err)
		}

		var msg AssemblyAIMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Failed to parse AssemblyAI message", "error", err)
			continue
		}

		switch msg.Type {
		case "Begin":
			slog.Debug("AssemblyAI session started", "id", msg.ID)
		case "Turn":
			if !msg.TurnIsFormatted {
				continue
			}
			if t := strings.TrimSpace(msg.Transcript); t != "" {
				turns = append(turns, t)
			}
		case "Termination":
			slog.Debug("AssemblyAI session terminated",
				"audio_seconds", msg.AudioDurationSec,
				"session_seconds", msg.SessionDurationSec)
			return strings.Join(turns, " "), nil
		}
	}

	return strings.Join(turns, " "), nil
}
