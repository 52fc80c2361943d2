package observer

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

// SessionLogger writes structured JSONL session logs, one file per session.
type SessionLogger struct {
	mu        sync.Mutex
	file      *os.File
	pathFor   func(started time.Time, sessionID string) string
	path      string
	sessionID string
}

type logRecord struct {
	Timestamp      string            `json:"ts"`
	Event          string            `json:"event"`
	SessionID      string            `json:"session_id"`
	StartTime      float64           `json:"start_time,omitempty"`
	Text           string            `json:"text,omitempty"`
	TranscriptPath string            `json:"transcript_path,omitempty"`
	SummaryPath    string            `json:"summary_path,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

// NewSessionLogger creates a logger that opens pathFor(started, id) when a
// session starts.
func NewSessionLogger(pathFor func(started time.Time, sessionID string) string) *SessionLogger {
	return &SessionLogger{pathFor: pathFor}
}

// Path returns the file of the current or last session.
func (sl *SessionLogger) Path() string {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.path
}

func (sl *SessionLogger) Close() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.closeLocked()
}

func (sl *SessionLogger) closeLocked() error {
	if sl.file != nil {
		err := sl.file.Close()
		sl.file = nil
		return err
	}
	return nil
}

func (sl *SessionLogger) write(rec logRecord) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file == nil {
		return fmt.Errorf("session log not open")
	}
	// keep lines compact
	rec.Text = strings.TrimSpace(rec.Text)
	if rec.SessionID == "" {
		rec.SessionID = sl.sessionID
	}
	return json.NewEncoder(sl.file).Encode(rec)
}

func (sl *SessionLogger) SessionStarted(info Info) error {
	path := sl.pathFor(info.StartedAt, info.SessionID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	sl.mu.Lock()
	sl.closeLocked()
	sl.file = f
	sl.path = path
	sl.sessionID = info.SessionID
	sl.mu.Unlock()

	return sl.write(logRecord{
		Timestamp: info.StartedAt.Format(time.RFC3339Nano),
		Event:     "session_start",
		SessionID: info.SessionID,
	})
}

func (sl *SessionLogger) Notify(seg transcript.Segment) error {
	return sl.write(logRecord{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Event:     "segment",
		StartTime: seg.StartTime,
		Text:      seg.Text,
	})
}

func (sl *SessionLogger) SessionEnded(info Info, outcome Outcome) error {
	err := sl.write(logRecord{
		Timestamp:      time.Now().Format(time.RFC3339Nano),
		Event:          "session_end",
		SessionID:      info.SessionID,
		TranscriptPath: outcome.TranscriptPath,
		SummaryPath:    outcome.SummaryPath,
		Details: map[string]string{
			"segments": fmt.Sprint(outcome.Segments),
			"duration": fmt.Sprintf("%.2f", outcome.Duration),
		},
	})
	if cerr := sl.Close(); err == nil {
		err = cerr
	}
	return err
}
