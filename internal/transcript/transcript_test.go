package transcript

import (
	"fmt"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hello   world  ", "hello world"},
		{"wait...", "wait."},
		{"really?!", "really."},
		{"what??? no!!", "what. no."},
		{"single. stop! ok?", "single. stop! ok?"},
		{"line\none\ttab", "line one tab"},
		{"   ", ""},
		{"", ""},
		{"...", "."},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDetectSpeakersAlternatesByIndex(t *testing.T) {
	segments := make([]Segment, 7)
	for i := range segments {
		segments[i].Text = fmt.Sprintf("s%d", i)
	}

	DetectSpeakers(segments)

	for i, seg := range segments {
		want := fmt.Sprintf("Speaker %d", (i%2)+1)
		if seg.Speaker != want {
			t.Errorf("segment %d speaker = %q, want %q", i, seg.Speaker, want)
		}
	}
}

func TestProcessSegmentsDropsEmptyAndKeepsOrder(t *testing.T) {
	input := []Segment{
		{StartTime: 1, Text: "first  one"},
		{StartTime: 2, Text: "   "},
		{StartTime: 3, Text: "second!!"},
		{StartTime: 4, Text: "\t"},
		{StartTime: 5, Text: "third"},
	}

	got := NewProcessor().ProcessSegments(input)

	if len(got) > len(input) {
		t.Fatalf("processed %d segments from %d", len(got), len(input))
	}
	want := []Segment{
		{StartTime: 1, Text: "first one", Speaker: "Speaker 1"},
		{StartTime: 3, Text: "second.", Speaker: "Speaker 2"},
		{StartTime: 5, Text: "third", Speaker: "Speaker 1"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if input[0].Text != "first  one" || input[0].Speaker != "" {
		t.Errorf("input was modified: %+v", input[0])
	}
}

func TestProcessSegmentsEmpty(t *testing.T) {
	if got := NewProcessor().ProcessSegments(nil); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestTranscriptText(t *testing.T) {
	tr := &Transcript{Segments: []Segment{
		{StartTime: 0.5, Text: "hello", Speaker: "Speaker 1"},
		{StartTime: 5.5, Text: "hi there", Speaker: "Speaker 2"},
		{StartTime: 10.25, Text: "bye", Speaker: "Speaker 1"},
	}}

	if got, want := tr.FullText(), "hello hi there bye"; got != want {
		t.Errorf("FullText = %q, want %q", got, want)
	}
	if got, want := tr.SpeakerText("Speaker 1"), "hello bye"; got != want {
		t.Errorf("SpeakerText = %q, want %q", got, want)
	}
	if got := tr.SpeakerText("Speaker 3"); got != "" {
		t.Errorf("SpeakerText(unknown) = %q, want empty", got)
	}
	if got := tr.Speakers(); len(got) != 2 || got[0] != "Speaker 1" || got[1] != "Speaker 2" {
		t.Errorf("Speakers = %v", got)
	}
	if got := tr.LastStart(); got != 10.25 {
		t.Errorf("LastStart = %v, want 10.25", got)
	}
}

func TestSpeakerOrUnknown(t *testing.T) {
	if got := (Segment{}).SpeakerOrUnknown(); got != UnknownSpeaker {
		t.Errorf("got %q, want %q", got, UnknownSpeaker)
	}
	if got := (Segment{Speaker: "Speaker 2"}).SpeakerOrUnknown(); got != "Speaker 2" {
		t.Errorf("got %q, want %q", got, "Speaker 2")
	}
}
