package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractiveSummarizer_Summarize(t *testing.T) {
	s := NewExtractiveSummarizer()

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "empty input",
			text: "",
			want: "",
		},
		{
			name: "whitespace only",
			text: "   \n\t ",
			want: "",
		},
		{
			name: "single sentence",
			text: "We walked in the park.",
			want: "We walked in the park.",
		},
		{
			name: "no terminal punctuation",
			text: "a fragment without an ending",
			want: "a fragment without an ending",
		},
		{
			name: "keeps first three sentences",
			text: "One. Two! Three? Four. Five.",
			want: "One. Two! Three?",
		},
		{
			name: "trims ragged whitespace between sentences",
			text: "First.\n\n  Second.   Third.",
			want: "First. Second. Third.",
		},
		{
			name: "trailing fragment counts as a sentence",
			text: "Done. And then we",
			want: "Done. And then we",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Summarize(tt.text))
		})
	}
}
