package persistence

import (
	"database/sql"
	"time"
)

type (

	// Entry is diary_entries table row
	Entry struct {
		ID         string
		Title      sql.NullString
		RecordedAt time.Time

		FileID        sql.NullString
		AudioFilePath sql.NullString

		Transcription sql.NullString
		Summary       sql.NullString

		Tags     []string
		Emotions map[string]float64

		TranscribeModel      sql.NullString
		SummaryModel         sql.NullString
		TranscribeConfidence sql.NullFloat64

		TranscriptionStatus string
		SummaryStatus       string

		TranscriptionTaskID sql.NullString
		SummaryTaskID       sql.NullString

		Created time.Time
		Updated time.Time
	}

	// EntryUpdate keeps changeable entry fields, nil means leave as is
	EntryUpdate struct {
		Title         *string
		Transcription *string
		Summary       *string
		Tags          []string

		TranscribeModel      *string
		SummaryModel         *string
		TranscribeConfidence *float64

		TranscriptionStatus *string
		SummaryStatus       *string

		TranscriptionTaskID *string
		SummaryTaskID       *string
	}

	// Setting is user_settings table row
	Setting struct {
		Key     string
		Value   string
		Updated time.Time
	}

	// TagCount keeps tag usage info
	TagCount struct {
		Name  string
		Count int
	}
)
