package api

import "context"

// TranscribeResult keeps one transcription provider call outcome
type TranscribeResult struct {
	Text       string
	Confidence float64
	Model      string
	Language   string
}

// SummaryResult keeps one summarization provider call outcome
type SummaryResult struct {
	Summary    string
	Title      string
	Model      string
	TokensUsed int
}

// Transcriber turns an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*TranscribeResult, error)
}

// Summarizer turns transcript text into a summary with a derived title
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*SummaryResult, error)
}

// TagSuggester derives up to 3 tags, reusing the existing vocabulary.
// Implementations degrade to an empty list, they never have to succeed
type TagSuggester interface {
	SuggestTags(ctx context.Context, transcription, summary string, existing []string) ([]string, error)
}

const titleLen = 20

// MakeTitle derives entry title from summary: first 20 characters
// plus an ellipsis marker, counted in runes, not bytes
func MakeTitle(summary string) string {
	r := []rune(summary)
	if len(r) <= titleLen {
		return summary
	}
	return string(r[:titleLen]) + "..."
}
