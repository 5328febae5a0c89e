package lifecycle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/audiary/audiary/internal/pkg/status"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type (
	// DB provides entry persistence
	DB interface {
		InsertEntry(ctx context.Context, entry *persistence.Entry) error
		LoadEntry(ctx context.Context, id string) (*persistence.Entry, error)
		LoadEntryByFileID(ctx context.Context, fileID string) (*persistence.Entry, error)
		LoadEntryByTranscriptionTask(ctx context.Context, taskID string) (*persistence.Entry, error)
		LoadEntryBySummaryTask(ctx context.Context, taskID string) (*persistence.Entry, error)
		UpdateEntry(ctx context.Context, id string, upd *persistence.EntryUpdate) (*persistence.Entry, error)
		DeleteEntry(ctx context.Context, id string) error
		LoadTagCounts(ctx context.Context) ([]persistence.TagCount, error)
	}

	// Filer provides audio blob storage
	Filer interface {
		SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error
		LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error)
		RemoveFile(ctx context.Context, name string) error
	}

	// TranscriberProvider builds transcriber for the resolved configuration
	TranscriberProvider interface {
		Get(sn *settings.Snapshot) (api.Transcriber, error)
	}

	// SummarizerProvider builds summarizer for the resolved configuration
	SummarizerProvider interface {
		Get(sn *settings.Snapshot) (api.Summarizer, error)
	}

	// TagProvider builds tag suggester for the resolved configuration
	TagProvider interface {
		Get(sn *settings.Snapshot) api.TagSuggester
	}

	// Config resolves the provider configuration per fetch
	Config interface {
		Snapshot(ctx context.Context) (*settings.Snapshot, error)
	}

	// Events receives entry snapshots after persisted transitions
	Events interface {
		EntryChanged(entry *persistence.Entry)
	}
)

// Params keeps all controller dependencies
type Params struct {
	DB          DB
	Filer       Filer
	Transcriber TranscriberProvider
	Summarizer  SummarizerProvider
	Tagger      TagProvider
	Config      Config
	Events      Events

	// AllowRestart permits starting a phase whose previous attempt is
	// still processing, the old task id is overwritten and orphaned
	AllowRestart bool
}

// Controller drives entry processing. Work is lazy: a start call only
// records intent, the poll that first observes processing status runs
// the provider synchronously within that request
type Controller struct {
	Params
}

// NewController creates controller instance
func NewController(p Params) (*Controller, error) {
	if p.DB == nil {
		return nil, errors.New("no db")
	}
	if p.Filer == nil {
		return nil, errors.New("no filer")
	}
	if p.Transcriber == nil || p.Summarizer == nil || p.Tagger == nil {
		return nil, errors.New("no providers")
	}
	if p.Config == nil {
		return nil, errors.New("no config")
	}
	if p.Events == nil {
		return nil, errors.New("no events")
	}
	return &Controller{Params: p}, nil
}

// standaloneSummary is returned for summary task ids that never got
// attached to an entry
const standaloneSummary = "本日の主な出来事や感想を簡潔にまとめた要約文がここに表示されます。"

type (
	// TranscriptionState is one poll outcome of the transcription phase
	TranscriptionState struct {
		TaskID        string
		Status        status.Status
		Transcription string
		Confidence    float64
		CompletedAt   time.Time
	}

	// SummaryState is one poll outcome of the summary phase
	SummaryState struct {
		TaskID      string
		Status      status.Status
		Summary     string
		CompletedAt time.Time
	}
)

// CreateUpload stores the audio blob and creates the diary entry in
// pending/pending state. fileID correlates the blob with the entry
func (c *Controller) CreateUpload(ctx context.Context, fileID, fileName string, r io.Reader, size int64) (*persistence.Entry, error) {
	objName, err := utils.MakeValidateFileName(fileID, fileName)
	if err != nil {
		return nil, err
	}
	if err := c.Filer.SaveFile(ctx, objName, r, size); err != nil {
		return nil, fmt.Errorf("can't save audio: %w", err)
	}
	now := time.Now()
	entry := &persistence.Entry{ID: uuid.NewString(), RecordedAt: now,
		FileID: utils.ToSQLStr(fileID), AudioFilePath: utils.ToSQLStr(objName),
		TranscriptionStatus: status.Pending.String(), SummaryStatus: status.Pending.String(),
		Created: now, Updated: now}
	if err := c.DB.InsertEntry(ctx, entry); err != nil {
		if errRm := c.Filer.RemoveFile(ctx, objName); errRm != nil {
			goapp.Log.Error().Err(errRm).Str("file", objName).Msg("can't drop audio after failed insert")
		}
		return nil, err
	}
	return entry, nil
}

// CreateEntry creates a text-only diary entry, no audio attached
func (c *Controller) CreateEntry(ctx context.Context, entry *persistence.Entry) (*persistence.Entry, error) {
	now := time.Now()
	entry.ID = uuid.NewString()
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = now
	}
	entry.TranscriptionStatus = status.Pending.String()
	entry.SummaryStatus = status.Pending.String()
	entry.Created, entry.Updated = now, now
	if err := c.DB.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// StartTranscription mints a transcription task for the entry correlated
// with the uploaded file. No transcription work happens here
func (c *Controller) StartTranscription(ctx context.Context, fileID string) (string, error) {
	entry, err := c.DB.LoadEntryByFileID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if !c.AllowRestart && status.From(entry.TranscriptionStatus) == status.Processing {
		return "", fmt.Errorf("transcription task %s: %w",
			utils.FromSQLStr(entry.TranscriptionTaskID), utils.ErrBusy)
	}
	taskID := uuid.NewString()
	st := status.Processing.String()
	entry, err = c.DB.UpdateEntry(ctx, entry.ID,
		&persistence.EntryUpdate{TranscriptionTaskID: &taskID, TranscriptionStatus: &st})
	if err != nil {
		return "", err
	}
	c.Events.EntryChanged(entry)
	return taskID, nil
}

// FetchTranscription polls the transcription task. The first poll that
// observes processing status runs the provider call synchronously
func (c *Controller) FetchTranscription(ctx context.Context, taskID string) (*TranscriptionState, error) {
	entry, err := c.DB.LoadEntryByTranscriptionTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	st := status.From(entry.TranscriptionStatus)
	if st != status.Processing {
		return &TranscriptionState{TaskID: taskID, Status: st,
			Transcription: utils.FromSQLStr(entry.Transcription),
			Confidence:    utils.FromSQLFloatOrZero(entry.TranscribeConfidence),
			CompletedAt:   entry.Updated}, nil
	}
	res, err := c.transcribe(ctx, entry)
	if err != nil {
		entry = c.markFailed(ctx, entry, func(u *persistence.EntryUpdate, s *string) { u.TranscriptionStatus = s })
		c.Events.EntryChanged(entry)
		return nil, err
	}
	upd := &persistence.EntryUpdate{Transcription: &res.Text, TranscribeModel: &res.Model,
		TranscribeConfidence: &res.Confidence}
	completed := status.Completed.String()
	upd.TranscriptionStatus = &completed
	entry, err = c.DB.UpdateEntry(ctx, entry.ID, upd)
	if err != nil {
		return nil, err
	}
	c.Events.EntryChanged(entry)
	return &TranscriptionState{TaskID: taskID, Status: status.Completed,
		Transcription: res.Text, Confidence: res.Confidence, CompletedAt: entry.Updated}, nil
}

func (c *Controller) transcribe(ctx context.Context, entry *persistence.Entry) (*api.TranscribeResult, error) {
	objName := utils.FromSQLStr(entry.AudioFilePath)
	if objName == "" {
		return nil, fmt.Errorf("entry %s has no audio: %w", entry.ID, utils.ErrNotFound)
	}
	sn, err := c.Config.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	tr, err := c.Transcriber.Get(sn)
	if err != nil {
		return nil, err
	}
	path, cleanup, err := c.fetchBlob(ctx, objName)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	res, err := tr.Transcribe(ctx, path)
	if err != nil {
		return nil, utils.NewErrProvider(err)
	}
	return res, nil
}

// fetchBlob copies the stored object into a temp file keeping the
// original extension, conversion detection relies on it
func (c *Controller) fetchBlob(ctx context.Context, objName string) (string, func(), error) {
	r, err := c.Filer.LoadFile(ctx, objName)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()
	f, err := os.CreateTemp("", "audiary-*"+filepath.Ext(objName))
	if err != nil {
		return "", nil, fmt.Errorf("can't create temp file: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil {
			goapp.Log.Warn().Err(err).Str("file", f.Name()).Msg("can't drop temp file")
		}
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("can't copy blob: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("can't close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// StartSummary mints a summary task. With an entry id the task attaches
// to the entry, without one the task stays standalone and the later poll
// fabricates a canned result
func (c *Controller) StartSummary(ctx context.Context, entryID string) (string, error) {
	taskID := uuid.NewString()
	if entryID == "" {
		return taskID, nil
	}
	entry, err := c.DB.LoadEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	if !c.AllowRestart && status.From(entry.SummaryStatus) == status.Processing {
		return "", fmt.Errorf("summary task %s: %w", utils.FromSQLStr(entry.SummaryTaskID), utils.ErrBusy)
	}
	st := status.Processing.String()
	entry, err = c.DB.UpdateEntry(ctx, entry.ID,
		&persistence.EntryUpdate{SummaryTaskID: &taskID, SummaryStatus: &st})
	if err != nil {
		return "", err
	}
	c.Events.EntryChanged(entry)
	return taskID, nil
}

// FetchSummary polls the summary task. Unknown task ids yield the canned
// standalone payload instead of an error
func (c *Controller) FetchSummary(ctx context.Context, taskID string) (*SummaryState, error) {
	entry, err := c.DB.LoadEntryBySummaryTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return &SummaryState{TaskID: taskID, Status: status.Completed,
				Summary: standaloneSummary, CompletedAt: time.Now()}, nil
		}
		return nil, err
	}
	st := status.From(entry.SummaryStatus)
	if st != status.Processing {
		return &SummaryState{TaskID: taskID, Status: st,
			Summary: utils.FromSQLStr(entry.Summary), CompletedAt: entry.Updated}, nil
	}
	if !entry.Transcription.Valid || entry.Transcription.String == "" {
		entry = c.markFailed(ctx, entry, func(u *persistence.EntryUpdate, s *string) { u.SummaryStatus = s })
		c.Events.EntryChanged(entry)
		return nil, fmt.Errorf("entry %s: %w", entry.ID, utils.ErrNoTranscription)
	}
	sn, res, err := c.summarize(ctx, entry)
	if err != nil {
		entry = c.markFailed(ctx, entry, func(u *persistence.EntryUpdate, s *string) { u.SummaryStatus = s })
		c.Events.EntryChanged(entry)
		return nil, err
	}
	upd := &persistence.EntryUpdate{Summary: &res.Summary, SummaryModel: &res.Model}
	completed := status.Completed.String()
	upd.SummaryStatus = &completed
	if !entry.Title.Valid || entry.Title.String == "" {
		upd.Title = &res.Title
	}
	if len(entry.Tags) == 0 {
		if tags := c.suggestTags(ctx, sn, entry.Transcription.String, res.Summary); len(tags) > 0 {
			upd.Tags = tags
		}
	}
	entry, err = c.DB.UpdateEntry(ctx, entry.ID, upd)
	if err != nil {
		return nil, err
	}
	c.Events.EntryChanged(entry)
	return &SummaryState{TaskID: taskID, Status: status.Completed,
		Summary: res.Summary, CompletedAt: entry.Updated}, nil
}

func (c *Controller) summarize(ctx context.Context, entry *persistence.Entry) (*settings.Snapshot, *api.SummaryResult, error) {
	sn, err := c.Config.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	sm, err := c.Summarizer.Get(sn)
	if err != nil {
		return nil, nil, err
	}
	res, err := sm.Summarize(ctx, entry.Transcription.String)
	if err != nil {
		return nil, nil, utils.NewErrProvider(err)
	}
	return sn, res, nil
}

// suggestTags is best effort, a failure is logged and swallowed
func (c *Controller) suggestTags(ctx context.Context, sn *settings.Snapshot, transcription, summary string) []string {
	existing, err := c.DB.LoadTagCounts(ctx)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("can't load existing tags")
		existing = nil
	}
	names := make([]string, 0, len(existing))
	for _, tc := range existing {
		names = append(names, tc.Name)
	}
	tags, err := c.Tagger.Get(sn).SuggestTags(ctx, transcription, summary, names)
	if err != nil {
		goapp.Log.Warn().Err(err).Msg("tag suggestion failed")
		return nil
	}
	return tags
}

// Delete removes the entry record and its audio blob. A blob already
// gone is fine, a blob that exists but can't be removed is an error
func (c *Controller) Delete(ctx context.Context, id string) error {
	entry, err := c.DB.LoadEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := c.DB.DeleteEntry(ctx, id); err != nil {
		return err
	}
	if objName := utils.FromSQLStr(entry.AudioFilePath); objName != "" {
		if err := c.Filer.RemoveFile(ctx, objName); err != nil {
			return fmt.Errorf("can't remove audio: %w", err)
		}
	}
	return nil
}

func (c *Controller) markFailed(ctx context.Context, entry *persistence.Entry,
	set func(*persistence.EntryUpdate, *string)) *persistence.Entry {
	failed := status.Failed.String()
	upd := &persistence.EntryUpdate{}
	set(upd, &failed)
	res, err := c.DB.UpdateEntry(ctx, entry.ID, upd)
	if err != nil {
		goapp.Log.Error().Err(err).Str("entry", entry.ID).Msg("can't persist failed status")
		return entry
	}
	return res
}
