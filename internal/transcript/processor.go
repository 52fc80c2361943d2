package transcript

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	terminalPunctRun = regexp.MustCompile(`[.!?]{2,}`)
)

// CleanText collapses whitespace, folds runs of terminal punctuation into a
// single period and trims the result.
func CleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = terminalPunctRun.ReplaceAllString(text, ".")
	return strings.TrimSpace(text)
}

// SpeakerLabel returns the placeholder label for the segment at index i.
func SpeakerLabel(i int) string {
	return fmt.Sprintf("Speaker %d", i%2+1)
}

// DetectSpeakers labels segments "Speaker 1" and "Speaker 2" alternately by
// position. This is a placeholder, not diarization: labels depend only on
// the index.
func DetectSpeakers(segments []Segment) []Segment {
	for i := range segments {
		segments[i].Speaker = SpeakerLabel(i)
	}
	return segments
}

// Processor is the finalisation pass applied once to a session's segments.
type Processor struct{}

// NewProcessor creates a transcript processor.
func NewProcessor() *Processor {
	return &Processor{}
}

// ProcessSegments cleans every segment, drops the ones whose text becomes
// empty and labels the survivors in order. The input slice is not modified.
func (p *Processor) ProcessSegments(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = CleanText(seg.Text)
		if seg.Text == "" {
			continue
		}
		out = append(out, seg)
	}
	return DetectSpeakers(out)
}
