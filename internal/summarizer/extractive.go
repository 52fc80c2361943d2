package summarizer

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const DefaultMaxSentences = 3

var sentenceEnd = regexp.MustCompile(`[^.!?]+[.!?]*`)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "i": true, "in": true, "is": true, "it": true, "of": true,
	"on": true, "or": true, "so": true, "that": true, "the": true, "this": true,
	"to": true, "was": true, "we": true, "were": true, "will": true, "with": true,
	"you": true, "they": true, "our": true, "just": true, "um": true, "uh": true,
}

// Extractive is an offline summarizer that keeps the highest-scoring
// sentences, scored by content-word frequency, in their original order.
type Extractive struct {
	maxSentences int
}

func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	return &Extractive{maxSentences: maxSentences}
}

func (e *Extractive) Summarize(_ context.Context, text string) (string, error) {
	sentences := splitSentences(text)
	if len(sentences) <= e.maxSentences {
		return strings.Join(sentences, " "), nil
	}

	freq := make(map[string]int)
	for _, s := range sentences {
		for _, w := range words(s) {
			freq[w]++
		}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ws := words(s)
		total := 0
		for _, w := range ws {
			total += freq[w]
		}
		score := 0.0
		if len(ws) > 0 {
			score = float64(total) / float64(len(ws))
		}
		ranked[i] = scored{index: i, score: score}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})
	keep := ranked[:e.maxSentences]
	sort.Slice(keep, func(a, b int) bool {
		return keep[a].index < keep[b].index
	})

	picked := make([]string, len(keep))
	for i, k := range keep {
		picked[i] = sentences[k.index]
	}
	return strings.Join(picked, " "), nil
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceEnd.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func words(sentence string) []string {
	fields := strings.FieldsFunc(strings.ToLower(sentence), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 && !stopWords[f] {
			out = append(out, f)
		}
	}
	return out
}
