package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/audiary/audiary/internal/pkg/persistence"
)

// LoadSettings loads all stored settings from DB
func (db *DB) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT key, value FROM user_settings`)
	if err != nil {
		return nil, fmt.Errorf("can't select settings: %w", err)
	}
	defer rows.Close()
	res := map[string]string{}
	for rows.Next() {
		var s persistence.Setting
		var raw []byte
		if err := rows.Scan(&s.Key, &raw); err != nil {
			return nil, fmt.Errorf("can't scan setting: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Value); err != nil {
			return nil, fmt.Errorf("can't decode setting '%s': %w", s.Key, err)
		}
		res[s.Key] = s.Value
	}
	return res, rows.Err()
}

// SaveSettings upserts all passed keys in one transaction, delete then
// insert per key. validate is called before commit, its error rolls the
// whole batch back
func (db *DB) SaveSettings(ctx context.Context, values map[string]string,
	validate func(map[string]string) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("can't begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	for k, v := range values {
		if _, err := tx.Exec(ctx, `DELETE FROM user_settings WHERE key = $1`, k); err != nil {
			return fmt.Errorf("can't delete setting '%s': %w", k, err)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("can't encode setting '%s': %w", k, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO user_settings(key, value, updated)
		VALUES($1, $2, $3)`, k, raw, now); err != nil {
			return fmt.Errorf("can't insert setting '%s': %w", k, err)
		}
	}
	if validate != nil {
		if err := validate(values); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("can't commit settings: %w", err)
	}
	return nil
}
