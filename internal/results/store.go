// Package results persists session artifacts (transcript and summary text
// files) under a results directory and reads them back for the CLI.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

const (
	// FileTimeLayout is the timestamp embedded in artifact filenames.
	FileTimeLayout = "20060102_150405"
	// HeaderTimeLayout is the timestamp written in artifact headers.
	HeaderTimeLayout = "2006-01-02 15:04:05"

	transcriptSeparatorWidth = 50
	summarySeparatorWidth    = 30
)

// Store writes artifacts into Dir, creating it on demand.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = "results"
	}
	return &Store{Dir: dir}
}

// TranscriptPath returns the transcript filename for a session started at t.
func (s *Store) TranscriptPath(t time.Time) string {
	return filepath.Join(s.Dir, fmt.Sprintf("transcript_%s.txt", t.Format(FileTimeLayout)))
}

// SummaryPath returns the summary filename for a summary created at t.
func (s *Store) SummaryPath(t time.Time) string {
	return filepath.Join(s.Dir, fmt.Sprintf("summary_%s.txt", t.Format(FileTimeLayout)))
}

// AudioPath returns the recording filename for a session started at t.
func (s *Store) AudioPath(t time.Time) string {
	return filepath.Join(s.Dir, fmt.Sprintf("audio_%s.wav", t.Format(FileTimeLayout)))
}

// SessionLogPath returns the JSONL event log filename for a session.
func (s *Store) SessionLogPath(t time.Time, sessionID string) string {
	shortID := sessionID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return filepath.Join(s.Dir, fmt.Sprintf("%s_session_%s.jsonl", t.Format(FileTimeLayout), shortID))
}

// EnsureDir creates the results directory.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	return nil
}

// SaveTranscript writes tr and returns the file path.
func (s *Store) SaveTranscript(tr *transcript.Transcript) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	path := s.TranscriptPath(tr.CreatedAt)
	if err := os.WriteFile(path, []byte(FormatTranscript(tr)), 0644); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}
	return path, nil
}

// SaveSummary writes summary stamped with createdAt and returns the file path.
func (s *Store) SaveSummary(summary string, createdAt time.Time) (string, error) {
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	path := s.SummaryPath(createdAt)
	if err := os.WriteFile(path, []byte(FormatSummary(summary, createdAt)), 0644); err != nil {
		return "", fmt.Errorf("failed to save summary: %w", err)
	}
	return path, nil
}

// FormatTranscript renders the transcript artifact.
func FormatTranscript(tr *transcript.Transcript) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting transcript from %s\n", tr.CreatedAt.Format(HeaderTimeLayout))
	fmt.Fprintf(&b, "Duration: %.2f seconds\n", tr.Duration)
	b.WriteString(strings.Repeat("=", transcriptSeparatorWidth) + "\n\n")

	for _, seg := range tr.Segments {
		fmt.Fprintf(&b, "[%.2fs] %s: %s\n", seg.StartTime, seg.SpeakerOrUnknown(), seg.Text)
	}
	return b.String()
}

// FormatSummary renders the summary artifact.
func FormatSummary(summary string, createdAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting summary from %s\n", createdAt.Format(HeaderTimeLayout))
	b.WriteString(strings.Repeat("=", summarySeparatorWidth) + "\n\n")
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}

// FileInfo describes a stored artifact.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the stored artifacts sorted by name. A missing directory
// yields no files and no error.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read results dir %q: %w", s.Dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(s.Dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read returns the content of the named artifact. Names containing path
// separators are rejected.
func (s *Store) Read(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid result name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("read result %q: %w", name, err)
	}
	return string(data), nil
}

// Clean removes the results directory and everything in it.
func (s *Store) Clean() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", s.Dir, err)
	}
	return nil
}
