package service

// Summarizer condenses free-form note text into a short summary.
type Summarizer interface {
	Summarize(text string) string
}
