package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// HistoryRecord is one classified document in the local batch history. A row
// with a non-empty Error never carries a verdict.
type HistoryRecord struct {
	ID             uuid.UUID
	FilePath       string
	SHA256         string
	Prediction     string
	Confidence     float64
	Label          int
	Message        string
	ExtractionPath string
	TextLength     int
	Error          string
	CreatedAt      time.Time
}

// HistoryStore keeps batch verdicts in a local SQLite file so repeated runs
// over the same directory skip documents that already classified cleanly.
type HistoryStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const historySchema = `
CREATE TABLE IF NOT EXISTS classification_history (
	id              TEXT PRIMARY KEY,
	file_path       TEXT NOT NULL,
	sha256          TEXT NOT NULL,
	prediction      TEXT NOT NULL DEFAULT '',
	confidence      REAL NOT NULL DEFAULT 0,
	label           INTEGER NOT NULL DEFAULT 0,
	message         TEXT NOT NULL DEFAULT '',
	extraction_path TEXT NOT NULL DEFAULT '',
	text_length     INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_sha256 ON classification_history(sha256);
`

// NewHistoryStore opens (or creates) the history database at path. Pass
// ":memory:" for a throwaway in-memory store.
func NewHistoryStore(path string, logger *slog.Logger) (*HistoryStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &HistoryStore{db: db, logger: logger}, nil
}

// Record inserts one history row, assigning ID and CreatedAt when unset.
func (s *HistoryStore) Record(ctx context.Context, rec HistoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_history
			(id, file_path, sha256, prediction, confidence, label, message, extraction_path, text_length, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID.String(), rec.FilePath, rec.SHA256, rec.Prediction, rec.Confidence,
		rec.Label, rec.Message, rec.ExtractionPath, rec.TextLength, rec.Error, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert history row: %w", err)
	}
	return nil
}

// Seen reports whether a document with this checksum already classified
// without error. Failed rows do not count, so those files get retried.
func (s *HistoryStore) Seen(ctx context.Context, sha256 string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM classification_history WHERE sha256 = ? AND error = ''
	`, sha256).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}
	return n > 0, nil
}

// List returns all history rows in insertion order.
func (s *HistoryStore) List(ctx context.Context) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, sha256, prediction, confidence, label, message, extraction_path, text_length, error, created_at
		FROM classification_history
		ORDER BY created_at ASC, file_path ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("closing history rows", "error", cerr)
		}
	}()

	var out []HistoryRecord
	for rows.Next() {
		var (
			rec       HistoryRecord
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &rec.FilePath, &rec.SHA256, &rec.Prediction, &rec.Confidence,
			&rec.Label, &rec.Message, &rec.ExtractionPath, &rec.TextLength, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse history id %q: %w", id, err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

func (s *HistoryStore) Close() error {
	return s.db.Close()
}
