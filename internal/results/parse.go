package results

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

var (
	segmentLine  = regexp.MustCompile(`^\[(\d+(?:\.\d+)?)s\] (.*?): (.*)$`)
	createdLine  = regexp.MustCompile(`^Meeting transcript from (.+)$`)
	durationLine = regexp.MustCompile(`^Duration: (\d+(?:\.\d+)?) seconds$`)
)

// ParseTranscript reads a transcript artifact back into a Transcript.
// Speakers rendered as "Unknown" come back unset.
func ParseTranscript(content string) (*transcript.Transcript, error) {
	tr := &transcript.Transcript{}
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		switch {
		case line == "" || strings.Trim(line, "=") == "":
			continue
		case createdLine.MatchString(line):
			m := createdLine.FindStringSubmatch(line)
			created, err := time.ParseInLocation(HeaderTimeLayout, m[1], time.Local)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse created_at: %w", lineNo, err)
			}
			tr.CreatedAt = created
		case durationLine.MatchString(line):
			m := durationLine.FindStringSubmatch(line)
			d, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse duration: %w", lineNo, err)
			}
			tr.Duration = d
		case segmentLine.MatchString(line):
			m := segmentLine.FindStringSubmatch(line)
			start, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parse start time: %w", lineNo, err)
			}
			speaker := m[2]
			if speaker == transcript.UnknownSpeaker {
				speaker = ""
			}
			tr.Segments = append(tr.Segments, transcript.Segment{
				StartTime: start,
				Text:      m[3],
				Speaker:   speaker,
			})
		default:
			return nil, fmt.Errorf("line %d: unrecognized transcript line %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tr, nil
}

// ParseTranscriptFile reads and parses the transcript at path.
func ParseTranscriptFile(path string) (*transcript.Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTranscript(string(data))
}
