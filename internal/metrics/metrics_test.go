package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSessionMetricsCounters(t *testing.T) {
	m := NewSessionMetrics("vosk", "abc", 16000)

	m.AddAudio(80000)
	m.AddAudio(80000)
	m.AddWindow(2*time.Second, "hello", nil)
	m.AddWindow(time.Second, "", nil)
	m.AddWindow(time.Second, "", errors.New("boom"))
	m.AddSegment("hello")
	m.AddObserverFailures(2)
	m.Finalize()

	if got := m.AudioSeconds(); got != 10 {
		t.Errorf("expected 10s of audio, got %f", got)
	}
	if m.Windows != 3 || m.EmptyWindows != 1 || m.FailedWindows != 1 {
		t.Errorf("unexpected window counters: %d/%d/%d", m.Windows, m.EmptyWindows, m.FailedWindows)
	}
	if m.Segments != 1 || m.TranscriptLength != 5 {
		t.Errorf("unexpected segment counters: %d/%d", m.Segments, m.TranscriptLength)
	}
	if m.FirstSegmentTime == nil {
		t.Error("first segment time not recorded")
	}
	if got := m.RealTimeFactor(); got != 0.4 {
		t.Errorf("expected RTF 0.4, got %f", got)
	}

	summary := m.Summary()
	for _, want := range []string{"Provider: vosk", "Session: abc", "Windows: 3 (empty 1, failed 1)", "Observer Failures: 2", "Real-time Factor: 0.40x"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestRealTimeFactorNoAudio(t *testing.T) {
	m := NewSessionMetrics("whisper", "x", 16000)
	m.AddWindow(time.Second, "", nil)
	if got := m.RealTimeFactor(); got != 0 {
		t.Errorf("expected 0 without audio, got %f", got)
	}
}
