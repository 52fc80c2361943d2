package metrics

import (
	"fmt"
	"sync"
	"time"
)

// SessionMetrics collects per-session counters for the recording pipeline.
type SessionMetrics struct {
	Provider         string
	SessionID        string
	SampleRate       int
	StartTime        time.Time
	EndTime          time.Time
	AudioSamples     int
	Windows          int
	EmptyWindows     int
	FailedWindows    int
	Segments         int
	TranscriptLength int
	ObserverFailures int
	TranscribeTime   time.Duration
	FirstSegmentTime *time.Time
	mu               sync.Mutex
}

func NewSessionMetrics(provider, sessionID string, sampleRate int) *SessionMetrics {
	return &SessionMetrics{
		Provider:   provider,
		SessionID:  sessionID,
		SampleRate: sampleRate,
		StartTime:  time.Now(),
	}
}

func (m *SessionMetrics) AddAudio(samples int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioSamples += samples
}

// AddWindow records one recognition attempt.
func (m *SessionMetrics) AddWindow(elapsed time.Duration, text string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Windows++
	m.TranscribeTime += elapsed
	switch {
	case err != nil:
		m.FailedWindows++
	case text == "":
		m.EmptyWindows++
	}
}

func (m *SessionMetrics) AddSegment(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FirstSegmentTime == nil {
		now := time.Now()
		m.FirstSegmentTime = &now
	}
	m.Segments++
	m.TranscriptLength += len(text)
}

func (m *SessionMetrics) AddObserverFailures(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ObserverFailures += n
}

func (m *SessionMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

func (m *SessionMetrics) audioSeconds() float64 {
	if m.SampleRate <= 0 {
		return 0
	}
	return float64(m.AudioSamples) / float64(m.SampleRate)
}

// AudioSeconds returns the seconds of audio received so far.
func (m *SessionMetrics) AudioSeconds() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audioSeconds()
}

// RealTimeFactor is recognition time divided by audio time. Zero when no
// audio was received.
func (m *SessionMetrics) RealTimeFactor() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.realTimeFactor()
}

func (m *SessionMetrics) realTimeFactor() float64 {
	secs := m.audioSeconds()
	if secs == 0 {
		return 0
	}
	return m.TranscribeTime.Seconds() / secs
}

func (m *SessionMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	duration := end.Sub(m.StartTime)
	var latency time.Duration
	if m.FirstSegmentTime != nil {
		latency = m.FirstSegmentTime.Sub(m.StartTime)
	}

	return fmt.Sprintf(
		"Provider: %s\n"+
			"Session: %s\n"+
			"Duration: %v\n"+
			"Audio Duration: %.2f seconds\n"+
			"Windows: %d (empty %d, failed %d)\n"+
			"Segments: %d\n"+
			"Transcript Length: %d chars\n"+
			"First Segment Latency: %v\n"+
			"Observer Failures: %d\n"+
			"Real-time Factor: %.2fx\n",
		m.Provider,
		m.SessionID,
		duration.Round(time.Millisecond),
		m.audioSeconds(),
		m.Windows,
		m.EmptyWindows,
		m.FailedWindows,
		m.Segments,
		m.TranscriptLength,
		latency.Round(time.Millisecond),
		m.ObserverFailures,
		m.realTimeFactor(),
	)
}
