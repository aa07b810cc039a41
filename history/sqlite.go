package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentflow/core"
	"github.com/hupe1980/agentflow/logging"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteOptions configure a SQLiteStore.
type SQLiteOptions struct {
	// Logger for store diagnostics.
	Logger logging.Logger
}

// SQLiteStore is a durable HistoryStore keeping one conversation per
// conversation ID in a SQLite database. Items are serialized as JSON and
// ordered by an autoincrement sequence, so reads reproduce the exact append
// order across restarts.
type SQLiteStore struct {
	db             *sql.DB
	conversationID string
	logger         logging.Logger
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// binds the store to the given conversation.
func NewSQLiteStore(path, conversationID string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS history_items (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id TEXT NOT NULL,
	payload         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_conversation ON history_items (conversation_id, seq);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &SQLiteStore{db: db, conversationID: conversationID, logger: opts.Logger}, nil
}

// GetItems returns the conversation's ordered items; a positive limit
// returns the trailing limit items.
func (s *SQLiteStore) GetItems(ctx context.Context, limit int) ([]core.Item, error) {
	query := `SELECT payload FROM history_items WHERE conversation_id = ? ORDER BY seq`
	args := []any{s.conversationID}
	if limit > 0 {
		// Trailing window: select the last limit rows, then restore order.
		query = `SELECT payload FROM (
			SELECT seq, payload FROM history_items WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history items: %w", err)
	}
	defer rows.Close()

	var items []core.Item
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		var item core.Item
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("failed to decode history item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history items: %w", err)
	}
	if items == nil {
		items = []core.Item{}
	}
	return items, nil
}

// AddItems appends items in order within a single transaction.
func (s *SQLiteStore) AddItems(ctx context.Context, items []core.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO history_items (conversation_id, payload) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode history item: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, s.conversationID, string(payload)); err != nil {
			return fmt.Errorf("failed to insert history item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history items: %w", err)
	}
	s.logger.Debug("history items persisted conversation_id=%s count=%d", s.conversationID, len(items))
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
