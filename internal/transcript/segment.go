// Package transcript holds the meeting transcript model and the
// finalisation pass that cleans segment text and labels speakers.
package transcript

import (
	"strings"
	"time"
)

// Segment is one span of recognized speech.
type Segment struct {
	// StartTime is the offset in seconds from session start. It is stamped
	// by the session controller when the segment arrives.
	StartTime float64 `json:"start_time"`
	// EndTime may be zero when unknown.
	EndTime float64 `json:"end_time"`
	Text    string  `json:"text"`
	// Speaker is empty until post-processing assigns a label.
	Speaker string `json:"speaker,omitempty"`
}

// SpeakerOrUnknown returns the speaker label used in rendered transcripts.
func (s Segment) SpeakerOrUnknown() string {
	if s.Speaker == "" {
		return UnknownSpeaker
	}
	return s.Speaker
}

// UnknownSpeaker is rendered for segments without a speaker label.
const UnknownSpeaker = "Unknown"

// Transcript is the aggregate of a finished session.
type Transcript struct {
	Segments  []Segment
	CreatedAt time.Time
	// Duration is the wall-clock span of the session in seconds.
	Duration float64
}

// FullText joins the text of every segment with single spaces.
func (t *Transcript) FullText() string {
	texts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		texts = append(texts, seg.Text)
	}
	return strings.Join(texts, " ")
}

// SpeakerText joins the text of the segments attributed to speaker.
func (t *Transcript) SpeakerText(speaker string) string {
	var texts []string
	for _, seg := range t.Segments {
		if seg.Speaker == speaker {
			texts = append(texts, seg.Text)
		}
	}
	return strings.Join(texts, " ")
}

// Speakers returns the distinct speaker labels in order of first appearance.
func (t *Transcript) Speakers() []string {
	seen := make(map[string]bool)
	var speakers []string
	for _, seg := range t.Segments {
		if seg.Speaker == "" || seen[seg.Speaker] {
			continue
		}
		seen[seg.Speaker] = true
		speakers = append(speakers, seg.Speaker)
	}
	return speakers
}

// LastStart returns the largest segment start offset, or zero.
func (t *Transcript) LastStart() float64 {
	var last float64
	for _, seg := range t.Segments {
		if seg.StartTime > last {
			last = seg.StartTime
		}
	}
	return last
}
