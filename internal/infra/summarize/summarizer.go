// Package summarize produces short extractive summaries of note text for
// display in session lists and worker-generated digests.
package summarize

import (
	"strings"

	"memorylane/internal/domain/service"
)

// maxSentences caps how much of the note survives into the summary.
const maxSentences = 3

// extractiveSummarizer keeps the leading sentences of the text. Notes are
// dictated chronologically, so the opening sentences carry the gist.
type extractiveSummarizer struct{}

// NewExtractiveSummarizer is the constructor for extractiveSummarizer.
func NewExtractiveSummarizer() service.Summarizer {
	return &extractiveSummarizer{}
}

// Summarize returns up to the first three sentences of the text, trimmed.
// Empty or whitespace-only input yields an empty summary.
func (extractiveSummarizer) Summarize(text string) string {
	sentences := splitSentences(text)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}

	return strings.Join(sentences, " ")
}

// splitSentences breaks text on terminal punctuation, keeping the
// punctuation attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder

	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		b.Reset()
	}

	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			flush()
		}
	}
	flush()

	return sentences
}
