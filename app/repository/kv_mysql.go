package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// MySQLKeyValueStore backs the wizard cache with the wizard_store table.
// One row per (session_id, store_key); writes upsert.
type MySQLKeyValueStore struct {
	db DBTX
}

func NewMySQLKeyValueStore(db DBTX) *MySQLKeyValueStore {
	return &MySQLKeyValueStore{db: db}
}

func (s *MySQLKeyValueStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	query := `
		SELECT store_value
		FROM wizard_store
		WHERE session_id = ? AND store_key = ?
	`

	var value string
	err := s.db.QueryRowContext(ctx, query, sessionID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *MySQLKeyValueStore) Set(ctx context.Context, sessionID, key, value string) error {
	query := `
		INSERT INTO wizard_store (session_id, store_key, store_value, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE store_value = VALUES(store_value), updated_at = VALUES(updated_at)
	`

	_, err := s.db.ExecContext(ctx, query, sessionID, key, value, time.Now().UTC())
	return err
}

func (s *MySQLKeyValueStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	query := `DELETE FROM wizard_store WHERE session_id = ? AND store_key IN (` + placeholders + `)`

	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, sessionID)
	for _, key := range keys {
		args = append(args, key)
	}

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteStale purges rows for sessions untouched since the cutoff. Used by
// the cleanup job; the Redis store handles the same concern with TTLs.
func (s *MySQLKeyValueStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM wizard_store WHERE updated_at < ?`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
