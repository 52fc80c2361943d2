// Package transcriber turns a stream of audio chunks into transcript
// segments by recognizing fixed-length windows of audio.
package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/audio"
	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

// DefaultWindow is the window length in seconds handed to the recognizer.
const DefaultWindow = 5.0

// Window reports the outcome of one recognition call.
type Window struct {
	Seconds float64
	Samples int
	Text    string
	Err     error
	Elapsed time.Duration
}

// Stream accumulates chunks into non-overlapping, time-driven windows and
// recognizes each full window once. Windows are cut at sample boundaries,
// not at silences, so a sentence may be split across two segments.
type Stream struct {
	transcriber Transcriber
	sampleRate  int
	window      float64
	threshold   int

	buffer []float32

	// OnWindow, when set, is called after every recognition attempt.
	OnWindow func(Window)
}

// NewStream creates a windowing stream. A non-positive window uses
// DefaultWindow.
func NewStream(t Transcriber, sampleRate int, window float64) *Stream {
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	if window <= 0 {
		window = DefaultWindow
	}
	threshold := int(math.Ceil(window*float64(sampleRate) - 1e-9))
	return &Stream{
		transcriber: t,
		sampleRate:  sampleRate,
		window:      window,
		threshold:   threshold,
		buffer:      make([]float32, 0, threshold),
	}
}

// Buffered returns the seconds of audio waiting for the current window.
func (s *Stream) Buffered() float64 {
	return audio.Seconds(len(s.buffer), s.sampleRate)
}

// Write appends chunk to the current window. When the window is full it is
// recognized and the buffer is reset whatever the outcome; a segment is
// returned only if the recognizer produced non-blank text. Recognition
// errors are logged and yield no segment.
func (s *Stream) Write(ctx context.Context, chunk []float32) (transcript.Segment, bool) {
	s.buffer = append(s.buffer, chunk...)
	if len(s.buffer) < s.threshold {
		return transcript.Segment{}, false
	}

	samples := s.buffer
	s.buffer = make([]float32, 0, s.threshold)

	started := time.Now()
	text, err := s.recognize(ctx, samples)
	text = strings.TrimSpace(text)

	w := Window{
		Seconds: audio.Seconds(len(samples), s.sampleRate),
		Samples: len(samples),
		Text:    text,
		Err:     err,
		Elapsed: time.Since(started),
	}
	if s.OnWindow != nil {
		s.OnWindow(w)
	}

	if err != nil {
		slog.Error("Transcription failed", "seconds", w.Seconds, "error", err)
		return transcript.Segment{}, false
	}
	if text == "" {
		slog.Debug("Window produced no speech", "seconds", w.Seconds)
		return transcript.Segment{}, false
	}
	return transcript.Segment{Text: text}, true
}

func (s *Stream) recognize(ctx context.Context, samples []float32) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transcriber panic: %v", r)
		}
	}()
	return s.transcriber.Transcribe(ctx, samples)
}

// Run drives Write from chunks and delivers segments in order. The returned
// channel is closed when chunks is closed or ctx is done; a partially filled
// window is dropped.
func (s *Stream) Run(ctx context.Context, chunks <-chan []float32) <-chan transcript.Segment {
	segments := make(chan transcript.Segment)

	go func() {
		defer close(segments)

		for {
			var chunk []float32
			var ok bool
			select {
			case <-ctx.Done():
				return
			case chunk, ok = <-chunks:
				if !ok {
					if len(s.buffer) > 0 {
						slog.Debug("Dropping partial window", "seconds", s.Buffered())
					}
					return
				}
			}

			seg, ok := s.Write(ctx, chunk)
			if !ok {
				continue
			}
			select {
			case segments <- seg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return segments
}
