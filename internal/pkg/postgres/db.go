package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/audiary/audiary/internal/pkg/persistence"
	"github.com/audiary/audiary/internal/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB provides operations with postgresql
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates DB instance
func NewDB(pool *pgxpool.Pool) (*DB, error) {
	res := &DB{pool: pool}
	return res, nil
}

const entryFields = `id, title, recorded_at, file_id, audio_file_path, transcription, summary,
	tags, emotions, transcribe_model, summary_model, transcribe_confidence,
	transcription_status, summary_status, transcription_task_id, summary_task_id,
	created, updated`

// InsertEntry inserts diary entry into DB
func (db *DB) InsertEntry(ctx context.Context, entry *persistence.Entry) error {
	rows, err := db.pool.Query(ctx, `INSERT INTO diary_entries(id, title, recorded_at, file_id,
	audio_file_path, tags, transcription_status, summary_status, created, updated)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, entry.ID, entry.Title, entry.RecordedAt,
		entry.FileID, entry.AudioFilePath, tagsOrEmpty(entry.Tags),
		entry.TranscriptionStatus, entry.SummaryStatus, entry.Created, entry.Updated)
	if err != nil {
		return fmt.Errorf("can't insert entry: %w", err)
	}
	defer rows.Close()
	return nil
}

// LoadEntry loads entry from DB
func (db *DB) LoadEntry(ctx context.Context, id string) (*persistence.Entry, error) {
	return db.loadEntryBy(ctx, "id", id)
}

// LoadEntryByFileID loads entry by uploaded file correlation id
func (db *DB) LoadEntryByFileID(ctx context.Context, fileID string) (*persistence.Entry, error) {
	return db.loadEntryBy(ctx, "file_id", fileID)
}

// LoadEntryByTranscriptionTask loads entry by transcription task id
func (db *DB) LoadEntryByTranscriptionTask(ctx context.Context, taskID string) (*persistence.Entry, error) {
	return db.loadEntryBy(ctx, "transcription_task_id", taskID)
}

// LoadEntryBySummaryTask loads entry by summary task id
func (db *DB) LoadEntryBySummaryTask(ctx context.Context, taskID string) (*persistence.Entry, error) {
	return db.loadEntryBy(ctx, "summary_task_id", taskID)
}

func (db *DB) loadEntryBy(ctx context.Context, field, value string) (*persistence.Entry, error) {
	res, err := scanEntry(db.pool.QueryRow(ctx, `SELECT `+entryFields+` FROM diary_entries
		WHERE `+field+` = $1`, value))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("can't load entry by %s: %w", field, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("can't load entry: %w", err)
	}
	return res, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (*persistence.Entry, error) {
	var res persistence.Entry
	err := row.Scan(&res.ID, &res.Title, &res.RecordedAt, &res.FileID, &res.AudioFilePath,
		&res.Transcription, &res.Summary, &res.Tags, &res.Emotions,
		&res.TranscribeModel, &res.SummaryModel, &res.TranscribeConfidence,
		&res.TranscriptionStatus, &res.SummaryStatus,
		&res.TranscriptionTaskID, &res.SummaryTaskID, &res.Created, &res.Updated)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListEntries loads a page of entries, newest recording first
func (db *DB) ListEntries(ctx context.Context, limit, offset int) ([]*persistence.Entry, int, error) {
	return db.listEntries(ctx, "", nil, limit, offset)
}

// ListEntriesByTag loads a page of entries whose tag set contains the exact tag
func (db *DB) ListEntriesByTag(ctx context.Context, tag string, limit, offset int) ([]*persistence.Entry, int, error) {
	return db.listEntries(ctx, byTagCond, []any{[]string{tag}}, limit, offset)
}

// SearchEntries loads fully processed entries containing the substring in
// title, transcription or summary, case-insensitive
func (db *DB) SearchEntries(ctx context.Context, query string, limit, offset int) ([]*persistence.Entry, int, error) {
	return db.listEntries(ctx, searchCond, []any{"%" + escapeLike(query) + "%"}, limit, offset)
}

// conditions number their placeholders from $1, listSQL appends
// limit/offset after the condition args
const (
	byTagCond  = "tags @> $1"
	searchCond = `(title ILIKE $1 OR transcription ILIKE $1 OR summary ILIKE $1)
		AND transcription_status = 'completed' AND summary_status = 'completed'`
)

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func listSQL(cond string, argCount int) (string, string) {
	where := ""
	if cond != "" {
		where = " WHERE " + cond
	}
	sel := `SELECT ` + entryFields + ` FROM diary_entries` + where +
		fmt.Sprintf(` ORDER BY recorded_at DESC LIMIT $%d OFFSET $%d`, argCount+1, argCount+2)
	return sel, `SELECT count(*) FROM diary_entries` + where
}

func (db *DB) listEntries(ctx context.Context, cond string, condArgs []any, limit, offset int) ([]*persistence.Entry, int, error) {
	selQuery, countQuery := listSQL(cond, len(condArgs))
	args := append(append([]any{}, condArgs...), limit, offset)
	rows, err := db.pool.Query(ctx, selQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("can't select entries: %w", err)
	}
	defer rows.Close()
	var res []*persistence.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("can't scan entry: %w", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("can't read entries: %w", err)
	}
	var total int
	if err := db.pool.QueryRow(ctx, countQuery, condArgs...).
		Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("can't count entries: %w", err)
	}
	return res, total, nil
}

// UpdateEntry applies non-nil fields, bumps updated and returns the new row
func (db *DB) UpdateEntry(ctx context.Context, id string, upd *persistence.EntryUpdate) (*persistence.Entry, error) {
	query, args := updateSQL(id, upd, time.Now())
	res, err := scanEntry(db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("can't update entry: %w", utils.ErrNotFound)
		}
		return nil, fmt.Errorf("can't update entry: %w", err)
	}
	return res, nil
}

func updateSQL(id string, upd *persistence.EntryUpdate, now time.Time) (string, []any) {
	set := []string{}
	args := []any{id}
	add := func(field string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Transcription != nil {
		add("transcription", *upd.Transcription)
	}
	if upd.Summary != nil {
		add("summary", *upd.Summary)
	}
	if upd.Tags != nil {
		add("tags", upd.Tags)
	}
	if upd.TranscribeModel != nil {
		add("transcribe_model", *upd.TranscribeModel)
	}
	if upd.SummaryModel != nil {
		add("summary_model", *upd.SummaryModel)
	}
	if upd.TranscribeConfidence != nil {
		add("transcribe_confidence", *upd.TranscribeConfidence)
	}
	if upd.TranscriptionStatus != nil {
		add("transcription_status", *upd.TranscriptionStatus)
	}
	if upd.SummaryStatus != nil {
		add("summary_status", *upd.SummaryStatus)
	}
	if upd.TranscriptionTaskID != nil {
		add("transcription_task_id", *upd.TranscriptionTaskID)
	}
	if upd.SummaryTaskID != nil {
		add("summary_task_id", *upd.SummaryTaskID)
	}
	add("updated", now)

	return `UPDATE diary_entries SET ` + strings.Join(set, ", ") +
		` WHERE id = $1 RETURNING ` + entryFields, args
}

// DeleteEntry removes entry record from DB
func (db *DB) DeleteEntry(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM diary_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("can't delete entry: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("can't delete entry: %w", utils.ErrNotFound)
	}
	return nil
}

// LoadTagCounts collects tag usage over all entries, most used first
func (db *DB) LoadTagCounts(ctx context.Context) ([]persistence.TagCount, error) {
	rows, err := db.pool.Query(ctx, `SELECT t.tag, count(*) FROM diary_entries,
		jsonb_array_elements_text(tags) AS t(tag)
		WHERE trim(t.tag) <> '' GROUP BY t.tag ORDER BY count(*) DESC, t.tag`)
	if err != nil {
		return nil, fmt.Errorf("can't select tags: %w", err)
	}
	defer rows.Close()
	var res []persistence.TagCount
	for rows.Next() {
		var tc persistence.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, fmt.Errorf("can't scan tag: %w", err)
		}
		res = append(res, tc)
	}
	return res, rows.Err()
}

// Live returns no error if db is reachable and initialized
func (db *DB) Live(ctx context.Context) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT FROM pg_tables WHERE tablename = 'diary_entries')`).Scan(&exists); err != nil {
		return fmt.Errorf("can't check table: %w", err)
	}
	if !exists {
		return fmt.Errorf("no migration done")
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
