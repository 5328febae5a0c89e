package mocks

import (
	"context"
	"io"

	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/stretchr/testify/mock"
)

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) InsertEntry(ctx context.Context, entry *persistence.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *DB) LoadEntry(ctx context.Context, id string) (*persistence.Entry, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *DB) LoadEntryByFileID(ctx context.Context, fileID string) (*persistence.Entry, error) {
	args := m.Called(ctx, fileID)
	return to[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *DB) LoadEntryByTranscriptionTask(ctx context.Context, taskID string) (*persistence.Entry, error) {
	args := m.Called(ctx, taskID)
	return to[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *DB) LoadEntryBySummaryTask(ctx context.Context, taskID string) (*persistence.Entry, error) {
	args := m.Called(ctx, taskID)
	return to[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *DB) UpdateEntry(ctx context.Context, id string, upd *persistence.EntryUpdate) (*persistence.Entry, error) {
	args := m.Called(ctx, id, upd)
	return to[*persistence.Entry](args.Get(0)), args.Error(1)
}

func (m *DB) DeleteEntry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DB) ListEntries(ctx context.Context, limit, offset int) ([]*persistence.Entry, int, error) {
	args := m.Called(ctx, limit, offset)
	return to[[]*persistence.Entry](args.Get(0)), args.Int(1), args.Error(2)
}

func (m *DB) ListEntriesByTag(ctx context.Context, tag string, limit, offset int) ([]*persistence.Entry, int, error) {
	args := m.Called(ctx, tag, limit, offset)
	return to[[]*persistence.Entry](args.Get(0)), args.Int(1), args.Error(2)
}

func (m *DB) SearchEntries(ctx context.Context, query string, limit, offset int) ([]*persistence.Entry, int, error) {
	args := m.Called(ctx, query, limit, offset)
	return to[[]*persistence.Entry](args.Get(0)), args.Int(1), args.Error(2)
}

func (m *DB) LoadTagCounts(ctx context.Context) ([]persistence.TagCount, error) {
	args := m.Called(ctx)
	return to[[]persistence.TagCount](args.Get(0)), args.Error(1)
}

func (m *DB) LoadSettings(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	return to[map[string]string](args.Get(0)), args.Error(1)
}

func (m *DB) SaveSettings(ctx context.Context, values map[string]string,
	validate func(map[string]string) error) error {
	args := m.Called(ctx, values, validate)
	return args.Error(0)
}

func (m *DB) Live(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error {
	args := m.Called(ctx, name, r, fileSize)
	return args.Error(0)
}

func (m *Filer) LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, name)
	return to[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

func (m *Filer) RemoveFile(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Transcriber is transcription adapter mock
type Transcriber struct{ mock.Mock }

func (m *Transcriber) Transcribe(ctx context.Context, audioPath string) (*api.TranscribeResult, error) {
	args := m.Called(ctx, audioPath)
	return to[*api.TranscribeResult](args.Get(0)), args.Error(1)
}

// Summarizer is summary adapter mock
type Summarizer struct{ mock.Mock }

func (m *Summarizer) Summarize(ctx context.Context, text string) (*api.SummaryResult, error) {
	args := m.Called(ctx, text)
	return to[*api.SummaryResult](args.Get(0)), args.Error(1)
}

// Tagger is tag suggestion adapter mock
type Tagger struct{ mock.Mock }

func (m *Tagger) SuggestTags(ctx context.Context, transcription, summary string, existing []string) ([]string, error) {
	args := m.Called(ctx, transcription, summary, existing)
	return to[[]string](args.Get(0)), args.Error(1)
}

// TranscriberProvider is transcriber factory mock
type TranscriberProvider struct{ mock.Mock }

func (m *TranscriberProvider) Get(sn *settings.Snapshot) (api.Transcriber, error) {
	args := m.Called(sn)
	return to[api.Transcriber](args.Get(0)), args.Error(1)
}

// SummarizerProvider is summarizer factory mock
type SummarizerProvider struct{ mock.Mock }

func (m *SummarizerProvider) Get(sn *settings.Snapshot) (api.Summarizer, error) {
	args := m.Called(sn)
	return to[api.Summarizer](args.Get(0)), args.Error(1)
}

// TagProvider is tag suggester factory mock
type TagProvider struct{ mock.Mock }

func (m *TagProvider) Get(sn *settings.Snapshot) api.TagSuggester {
	args := m.Called(sn)
	return to[api.TagSuggester](args.Get(0))
}

// Config is settings resolver mock
type Config struct{ mock.Mock }

func (m *Config) Snapshot(ctx context.Context) (*settings.Snapshot, error) {
	args := m.Called(ctx)
	return to[*settings.Snapshot](args.Get(0)), args.Error(1)
}

func (m *Config) Save(ctx context.Context, values map[string]string) error {
	args := m.Called(ctx, values)
	return args.Error(0)
}

func (m *Config) Issues(ctx context.Context) ([]string, *settings.Snapshot, error) {
	args := m.Called(ctx)
	return to[[]string](args.Get(0)), to[*settings.Snapshot](args.Get(1)), args.Error(2)
}

// Events is entry change listener mock
type Events struct{ mock.Mock }

func (m *Events) EntryChanged(entry *persistence.Entry) {
	m.Called(entry)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
