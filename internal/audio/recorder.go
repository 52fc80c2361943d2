package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/go-audio/wav"
)

// Recorder tees a Source into a 16-bit mono WAV file. The file is finalized
// when the wrapped source is exhausted or the recorder is stopped.
type Recorder struct {
	source     Source
	path       string
	sampleRate int

	mu      sync.Mutex
	stopped chan struct{}
	done    chan struct{}
	samples int
}

// NewRecorder wraps source so that every chunk is also written to path.
func NewRecorder(source Source, path string, sampleRate int) *Recorder {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	return &Recorder{
		source:     source,
		path:       path,
		sampleRate: sampleRate,
	}
}

// Path returns the WAV file path.
func (r *Recorder) Path() string { return r.path }

func (r *Recorder) Start(ctx context.Context) (<-chan []float32, error) {
	f, err := os.Create(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	in, err := r.source.Start(ctx)
	if err != nil {
		f.Close()
		os.Remove(r.path)
		return nil, err
	}

	enc := wav.NewEncoder(f, r.sampleRate, 16, 1, 1)
	stopped := make(chan struct{})
	done := make(chan struct{})
	r.mu.Lock()
	r.stopped = stopped
	r.done = done
	r.samples = 0
	r.mu.Unlock()

	out := make(chan []float32)
	go func() {
		defer close(done)
		defer close(out)
		defer r.finish(enc, f)

		buf := newIntBuffer(r.sampleRate)
		for chunk := range in {
			fillIntBuffer(buf, chunk)
			if err := enc.Write(buf); err != nil {
				slog.Error("Failed to write recording", "path", r.path, "error", err)
			} else {
				r.mu.Lock()
				r.samples += len(chunk)
				r.mu.Unlock()
			}

			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			case <-stopped:
				return
			}
		}
	}()

	return out, nil
}

func (r *Recorder) finish(enc *wav.Encoder, f *os.File) {
	if err := enc.Close(); err != nil {
		slog.Error("Failed to finalize recording", "path", r.path, "error", err)
	}
	if err := f.Close(); err != nil {
		slog.Error("Failed to close recording", "path", r.path, "error", err)
	}

	r.mu.Lock()
	samples := r.samples
	r.mu.Unlock()
	slog.Info("Audio saved", "path", r.path, "seconds", Seconds(samples, r.sampleRate))
}

// Stop stops the wrapped source and waits for the WAV file to be finalized.
func (r *Recorder) Stop() error {
	err := r.source.Stop()

	r.mu.Lock()
	stopped, done := r.stopped, r.done
	if stopped != nil {
		select {
		case <-stopped:
		default:
			close(stopped)
		}
	}
	r.mu.Unlock()

	if done != nil {
		<-done
	}
	return err
}
