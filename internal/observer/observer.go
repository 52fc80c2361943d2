// Package observer fans live transcript segments out to interested parties.
package observer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

// Observer receives each segment as soon as it is stamped.
type Observer interface {
	Notify(seg transcript.Segment) error
}

// Func adapts a function to the Observer interface.
type Func func(seg transcript.Segment) error

func (f Func) Notify(seg transcript.Segment) error { return f(seg) }

// Info identifies a recording session.
type Info struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

// Outcome describes how a session ended.
type Outcome struct {
	Summary        string  `json:"summary"`
	TranscriptPath string  `json:"transcript_path,omitempty"`
	SummaryPath    string  `json:"summary_path"`
	Segments       int     `json:"segments"`
	Duration       float64 `json:"duration"`
}

// Lifecycle is implemented by observers that also want session boundaries.
type Lifecycle interface {
	SessionStarted(info Info) error
	SessionEnded(info Info, outcome Outcome) error
}

// Registry holds observers in registration order. Delivery is synchronous
// and a failing observer never prevents delivery to the others.
type Registry struct {
	mu        sync.Mutex
	observers []Observer
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends an observer. Observers cannot be removed.
func (r *Registry) Add(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.observers)
}

func (r *Registry) snapshot() []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Observer(nil), r.observers...)
}

// Notify delivers seg to every observer in order and returns how many
// failed.
func (r *Registry) Notify(seg transcript.Segment) int {
	failed := 0
	for i, o := range r.snapshot() {
		if err := safeCall(func() error { return o.Notify(seg) }); err != nil {
			slog.Error("Observer failed", "observer", i, "type", fmt.Sprintf("%T", o), "error", err)
			failed++
		}
	}
	return failed
}

// SessionStarted informs every Lifecycle observer that a session began.
func (r *Registry) SessionStarted(info Info) int {
	failed := 0
	for i, o := range r.snapshot() {
		lc, ok := o.(Lifecycle)
		if !ok {
			continue
		}
		if err := safeCall(func() error { return lc.SessionStarted(info) }); err != nil {
			slog.Error("Observer session start failed", "observer", i, "error", err)
			failed++
		}
	}
	return failed
}

// SessionEnded informs every Lifecycle observer that a session finished.
func (r *Registry) SessionEnded(info Info, outcome Outcome) int {
	failed := 0
	for i, o := range r.snapshot() {
		lc, ok := o.(Lifecycle)
		if !ok {
			continue
		}
		if err := safeCall(func() error { return lc.SessionEnded(info, outcome) }); err != nil {
			slog.Error("Observer session end failed", "observer", i, "error", err)
			failed++
		}
	}
	return failed
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return fn()
}
