package service

import (
	"database/sql"
	"time"

	"github.com/audiary/audiary/internal/pkg/persistence"
)

type (
	entryResponse struct {
		ID                   string             `json:"id"`
		Title                *string            `json:"title"`
		RecordedAt           time.Time          `json:"recorded_at"`
		AudioFilePath        *string            `json:"audio_file_path"`
		FileID               *string            `json:"file_id"`
		Transcription        *string            `json:"transcription"`
		Summary              *string            `json:"summary"`
		Tags                 []string           `json:"tags"`
		Emotions             map[string]float64 `json:"emotions"`
		TranscribeModel      *string            `json:"transcribe_model"`
		SummaryModel         *string            `json:"summary_model"`
		TranscribeConfidence *float64           `json:"transcribe_confidence,omitempty"`
		TranscriptionStatus  string             `json:"transcription_status"`
		SummaryStatus        string             `json:"summary_status"`
		CreatedAt            time.Time          `json:"created_at"`
		UpdatedAt            time.Time          `json:"updated_at"`
	}

	entryListResponse struct {
		Entries []*entryResponse `json:"entries"`
		Total   int              `json:"total"`
		Page    int              `json:"page"`
		Size    int              `json:"size"`
		HasNext bool             `json:"has_next"`
		Tag     string           `json:"tag,omitempty"`
		Query   string           `json:"query,omitempty"`
	}
)

func mapEntry(e *persistence.Entry) *entryResponse {
	return &entryResponse{ID: e.ID, Title: strOrNil(e.Title), RecordedAt: e.RecordedAt,
		AudioFilePath: strOrNil(e.AudioFilePath), FileID: strOrNil(e.FileID),
		Transcription: strOrNil(e.Transcription), Summary: strOrNil(e.Summary),
		Tags: e.Tags, Emotions: e.Emotions,
		TranscribeModel: strOrNil(e.TranscribeModel), SummaryModel: strOrNil(e.SummaryModel),
		TranscribeConfidence: floatOrNil(e.TranscribeConfidence),
		TranscriptionStatus:  e.TranscriptionStatus, SummaryStatus: e.SummaryStatus,
		CreatedAt: e.Created, UpdatedAt: e.Updated}
}

func mapEntries(entries []*persistence.Entry) []*entryResponse {
	res := make([]*entryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, mapEntry(e))
	}
	return res
}

func strOrNil(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func floatOrNil(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
