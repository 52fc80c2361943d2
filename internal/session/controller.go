// Package session runs one meeting recording at a time: it pulls audio
// through the windowing transcriber, stamps and fans out segments, and on
// exit persists the transcript and its summary.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amanullahtanweer/meeting-summarizer/internal/audio"
	"github.com/amanullahtanweer/meeting-summarizer/internal/metrics"
	"github.com/amanullahtanweer/meeting-summarizer/internal/observer"
	"github.com/amanullahtanweer/meeting-summarizer/internal/results"
	"github.com/amanullahtanweer/meeting-summarizer/internal/summarizer"
	"github.com/amanullahtanweer/meeting-summarizer/internal/transcriber"
	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

const (
	// NoSpeechMessage is the summary of a session that captured no segments.
	NoSpeechMessage = "No speech was captured during the meeting."
	// SummaryFailedMessage replaces the summary when the summarizer fails.
	SummaryFailedMessage = "Summary generation failed."
)

var (
	// ErrSessionActive is returned by Start while a session is recording or finalizing.
	ErrSessionActive = errors.New("a session is already in progress")
	// ErrNotRecording is returned by Stop when no session is recording.
	ErrNotRecording = errors.New("no session is recording")
)

// State is the lifecycle stage of the controller's current session.
type State int

const (
	Idle State = iota
	Recording
	Finalizing
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Finalizing:
		return "finalizing"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is what a finished session produced. TranscriptPath is empty when
// no speech was captured.
type Result struct {
	SessionID      string
	Summary        string
	TranscriptPath string
	SummaryPath    string
	Segments       int
	Duration       float64
}

// Config wires a Controller to its audio source and capabilities.
type Config struct {
	Source      audio.Source
	Transcriber transcriber.Transcriber
	Summarizer  summarizer.Summarizer
	Store       *results.Store

	// Provider names the STT backend in metrics.
	Provider       string
	SampleRate     int
	WindowSeconds  float64
	SummaryTimeout time.Duration
}

// Controller owns the session state and runs at most one session at a time.
type Controller struct {
	config    Config
	registry  *observer.Registry
	processor *transcript.Processor
	now       func() time.Time

	mu        sync.Mutex
	state     State
	sessionID string
	startTime time.Time
	segments  []transcript.Segment
	cancel    context.CancelFunc
	metrics   *metrics.SessionMetrics
}

// NewController fills unset Config fields with defaults.
func NewController(config Config) *Controller {
	if config.SampleRate <= 0 {
		config.SampleRate = audio.DefaultSampleRate
	}
	if config.WindowSeconds <= 0 {
		config.WindowSeconds = transcriber.DefaultWindow
	}
	if config.SummaryTimeout <= 0 {
		config.SummaryTimeout = 2 * time.Minute
	}
	if config.Summarizer == nil {
		config.Summarizer = summarizer.NewExtractive(0)
	}
	if config.Store == nil {
		config.Store = results.NewStore("")
	}
	return &Controller{
		config:    config,
		registry:  observer.NewRegistry(),
		processor: transcript.NewProcessor(),
		now:       time.Now,
	}
}

// AddObserver registers o for live segments. Observers implementing
// observer.Lifecycle also receive session start and end.
func (c *Controller) AddObserver(o observer.Observer) {
	c.registry.Add(o)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Segments returns a copy of the segments captured so far.
func (c *Controller) Segments() []transcript.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]transcript.Segment(nil), c.segments...)
}

// Metrics returns the metrics of the current or last session.
func (c *Controller) Metrics() *metrics.SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// Stop interrupts a recording session. Start then finalizes and returns.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Recording {
		return ErrNotRecording
	}
	c.cancel()
	return nil
}

// Start records until ctx is cancelled, Stop is called or the audio source
// ends, then finalizes the session. It blocks for the whole session.
func (c *Controller) Start(ctx context.Context) (result *Result, err error) {
	c.mu.Lock()
	if c.state == Recording || c.state == Finalizing {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	c.state = Recording
	c.sessionID = uuid.NewString()
	c.startTime = c.now()
	c.segments = nil
	c.cancel = cancel
	c.metrics = metrics.NewSessionMetrics(c.config.Provider, c.sessionID, c.config.SampleRate)
	info := observer.Info{SessionID: c.sessionID, StartedAt: c.startTime}
	c.mu.Unlock()

	logger := slog.With("session", info.SessionID)
	logger.Info("Session started")
	c.registry.SessionStarted(info)

	var recordErr error
	defer func() {
		result, err = c.finish(ctx, info, logger)
		err = errors.Join(recordErr, err)
	}()

	recordErr = c.record(sessionCtx, logger)
	return
}

func (c *Controller) record(ctx context.Context, logger *slog.Logger) error {
	chunks, err := c.config.Source.Start(ctx)
	if err != nil {
		logger.Error("Failed to start audio source", "error", err)
		return fmt.Errorf("failed to start audio source: %w", err)
	}

	m := c.Metrics()
	stream := transcriber.NewStream(c.config.Transcriber, c.config.SampleRate, c.config.WindowSeconds)
	stream.OnWindow = func(w transcriber.Window) {
		m.AddWindow(w.Elapsed, w.Text, w.Err)
	}
	segments := stream.Run(ctx, meter(ctx, chunks, m))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recording interrupted")
			return nil
		case seg, ok := <-segments:
			if !ok {
				if ctx.Err() == nil {
					logger.Info("Audio source ended")
				}
				return nil
			}
			// Segments that race with cancellation belong to nobody.
			if ctx.Err() != nil {
				return nil
			}
			c.handleSegment(seg, m)
		}
	}
}

func meter(ctx context.Context, in <-chan []float32, m *metrics.SessionMetrics) <-chan []float32 {
	out := make(chan []float32)
	go func() {
		defer close(out)
		for {
			var chunk []float32
			var ok bool
			select {
			case chunk, ok = <-in:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
			m.AddAudio(len(chunk))
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *Controller) handleSegment(seg transcript.Segment, m *metrics.SessionMetrics) {
	c.mu.Lock()
	offset := c.now().Sub(c.startTime).Seconds()
	if offset < 0 {
		offset = 0
	}
	if n := len(c.segments); n > 0 && offset < c.segments[n-1].StartTime {
		offset = c.segments[n-1].StartTime
	}
	seg.StartTime = offset
	c.segments = append(c.segments, seg)
	c.mu.Unlock()

	m.AddSegment(seg.Text)
	if failed := c.registry.Notify(seg); failed > 0 {
		m.AddObserverFailures(failed)
	}
}

func (c *Controller) finish(ctx context.Context, info observer.Info, logger *slog.Logger) (*Result, error) {
	c.mu.Lock()
	c.state = Finalizing
	c.cancel()
	segments := append([]transcript.Segment(nil), c.segments...)
	m := c.metrics
	c.mu.Unlock()

	if err := c.config.Source.Stop(); err != nil {
		logger.Warn("Failed to stop audio source", "error", err)
	}

	// Artifacts of a session with speech are stamped with its start time;
	// the no-speech summary is stamped when the session ends.
	result := &Result{SessionID: info.SessionID, Segments: len(segments)}
	defer func() {
		m.Finalize()
		c.registry.SessionEnded(info, observer.Outcome{
			Summary:        result.Summary,
			TranscriptPath: result.TranscriptPath,
			SummaryPath:    result.SummaryPath,
			Segments:       result.Segments,
			Duration:       result.Duration,
		})

		c.mu.Lock()
		c.state = Completed
		c.mu.Unlock()

		logger.Info("Session completed", "segments", result.Segments, "duration", result.Duration)
		logger.Debug("Session metrics\n" + m.Summary())
	}()

	ended := c.now()
	result.Duration = ended.Sub(info.StartedAt).Seconds()
	if n := len(segments); n > 0 && result.Duration < segments[n-1].StartTime {
		result.Duration = segments[n-1].StartTime
	}

	if len(segments) == 0 {
		logger.Info("No speech captured")
		result.Summary = NoSpeechMessage
		path, err := c.config.Store.SaveSummary(NoSpeechMessage, ended)
		if err != nil {
			return nil, err
		}
		result.SummaryPath = path
		return result, nil
	}

	tr := &transcript.Transcript{
		Segments:  c.processor.ProcessSegments(segments),
		CreatedAt: info.StartedAt,
		Duration:  result.Duration,
	}
	transcriptPath, err := c.config.Store.SaveTranscript(tr)
	if err != nil {
		return nil, err
	}
	result.TranscriptPath = transcriptPath
	logger.Info("Transcript saved", "path", transcriptPath, "segments", len(tr.Segments))

	result.Summary = c.summarize(ctx, tr.FullText(), logger)

	summaryPath, err := c.config.Store.SaveSummary(result.Summary, info.StartedAt)
	if err != nil {
		return nil, err
	}
	result.SummaryPath = summaryPath
	logger.Info("Summary saved", "path", summaryPath)

	return result, nil
}

// summarize never fails; errors and panics become SummaryFailedMessage.
// It runs detached from the recording context, which is already cancelled.
func (c *Controller) summarize(ctx context.Context, text string, logger *slog.Logger) (summary string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.SummaryTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Summarizer panic", "panic", r)
			summary = SummaryFailedMessage
		}
	}()

	started := time.Now()
	s, err := c.config.Summarizer.Summarize(ctx, text)
	if err != nil {
		logger.Error("Summary generation failed", "error", err)
		return SummaryFailedMessage
	}
	if strings.TrimSpace(s) == "" {
		logger.Warn("Summarizer returned nothing")
		return SummaryFailedMessage
	}
	logger.Debug("Summary generated", "elapsed", time.Since(started))
	return s
}
