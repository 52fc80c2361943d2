package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// FileConfig configures a WAV file source.
type FileConfig struct {
	Path       string
	SampleRate int
	ChunkSize  int
	// Realtime paces chunks at playback speed instead of reading as fast
	// as possible.
	Realtime bool
}

// FileSource replays a WAV recording as if it were a live capture. Stereo
// input is downmixed and any sample rate is resampled to SampleRate.
type FileSource struct {
	config FileConfig

	mu      sync.Mutex
	stopped chan struct{}
}

// NewFileSource creates a file source.
func NewFileSource(config FileConfig) *FileSource {
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	return &FileSource{config: config}
}

func (s *FileSource) Start(ctx context.Context) (<-chan []float32, error) {
	f, err := os.Open(s.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	decoded, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", s.config.Path, err)
	}

	var streamer beep.Streamer = decoded
	target := beep.SampleRate(s.config.SampleRate)
	if format.SampleRate != target {
		streamer = beep.Resample(4, format.SampleRate, target, decoded)
	}

	stopped := make(chan struct{})
	s.mu.Lock()
	s.stopped = stopped
	s.mu.Unlock()

	slog.Info("Audio file opened",
		"path", s.config.Path,
		"sample_rate", int(format.SampleRate),
		"channels", format.NumChannels,
	)

	chunks := make(chan []float32)
	go func() {
		defer close(chunks)
		defer f.Close()
		defer decoded.Close()

		var ticker *time.Ticker
		if s.config.Realtime {
			interval := time.Duration(float64(time.Second) * Seconds(s.config.ChunkSize, s.config.SampleRate))
			ticker = time.NewTicker(interval)
			defer ticker.Stop()
		}

		buf := make([][2]float64, s.config.ChunkSize)
		for {
			n, ok := streamer.Stream(buf)
			if n > 0 {
				chunk := make([]float32, n)
				for i := 0; i < n; i++ {
					chunk[i] = float32((buf[i][0] + buf[i][1]) / 2)
				}

				if ticker != nil {
					select {
					case <-ticker.C:
					case <-ctx.Done():
						return
					case <-stopped:
						return
					}
				}

				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				case <-stopped:
					return
				}
			}
			if !ok {
				if err := decoded.Err(); err != nil {
					slog.Error("Audio file decode error", "path", s.config.Path, "error", err)
				}
				return
			}
		}
	}()

	return chunks, nil
}

// Stop ends playback. The file is closed by the reader goroutine.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped == nil {
		return nil
	}
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
	}
	return nil
}
