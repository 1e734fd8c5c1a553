// Package store persists processed lecture records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tzhao11/lectern/internal/domain"
)

// RecordSummary is the listing shape for history queries.
type RecordSummary struct {
	RecordID     string           `json:"record_id"`
	SourceKey    domain.SourceKey `json:"source_key"`
	SourceURL    string           `json:"source_url"`
	Title        string           `json:"title"`
	Channel      string           `json:"channel"`
	ConceptCount int              `json:"concept_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

// SQLiteStore persists records using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			source_key TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			title TEXT NOT NULL,
			channel TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS note_records (
			record_id TEXT PRIMARY KEY,
			source_key TEXT NOT NULL,
			transcript TEXT NOT NULL,
			notes TEXT NOT NULL,
			concepts TEXT NOT NULL,
			classification TEXT,
			task_trace TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (source_key) REFERENCES sources(source_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_records_source ON note_records(source_key, created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Add new columns for existing DBs (SQLite has limited ALTER TABLE support).
	if err := s.ensureColumn("note_records", "classification", "ALTER TABLE note_records ADD COLUMN classification TEXT"); err != nil {
		return err
	}
	if err := s.ensureColumn("note_records", "task_trace", "ALTER TABLE note_records ADD COLUMN task_trace TEXT NOT NULL DEFAULT '[]'"); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecord persists one completed run. Prior records for the same source
// are superseded, not removed; FindLatest always picks the newest.
func (s *SQLiteStore) SaveRecord(ctx context.Context, rec *domain.NoteRecord) (string, error) {
	concepts, err := json.Marshal(rec.Concepts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal concepts: %w", err)
	}
	trace, err := json.Marshal(rec.TaskTrace)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task trace: %w", err)
	}
	var classification sql.NullString
	if rec.Classification != nil {
		data, err := json.Marshal(rec.Classification)
		if err != nil {
			return "", fmt.Errorf("failed to marshal classification: %w", err)
		}
		classification = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sources (source_key, source_url, title, channel, duration)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_key) DO UPDATE SET
		   source_url = excluded.source_url,
		   title = excluded.title,
		   channel = excluded.channel,
		   duration = excluded.duration`,
		rec.SourceKey, rec.SourceURL, rec.Meta.Title, rec.Meta.Channel, rec.Meta.Duration); err != nil {
		return "", err
	}

	recordID := "rec_" + uuid.New().String()[:8]
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO note_records (record_id, source_key, transcript, notes, concepts, classification, task_trace, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recordID, rec.SourceKey, rec.Transcript, rec.Notes, string(concepts), classification, string(trace), time.Now().UTC()); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return recordID, nil
}

// FindLatest returns the most recent record for a source, or nil when none
// exists.
func (s *SQLiteStore) FindLatest(ctx context.Context, key domain.SourceKey) (*domain.CacheRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.record_id, r.source_key, s.source_url, s.title, s.channel, s.duration,
		        r.transcript, r.notes, r.concepts, r.classification, r.task_trace, r.created_at
		 FROM note_records r
		 JOIN sources s ON s.source_key = r.source_key
		 WHERE r.source_key = ?
		 ORDER BY r.created_at DESC
		 LIMIT 1`, key)
	return scanRecord(row)
}

// GetRecord retrieves one record by ID, or nil when it does not exist.
func (s *SQLiteStore) GetRecord(ctx context.Context, recordID string) (*domain.CacheRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.record_id, r.source_key, s.source_url, s.title, s.channel, s.duration,
		        r.transcript, r.notes, r.concepts, r.classification, r.task_trace, r.created_at
		 FROM note_records r
		 JOIN sources s ON s.source_key = r.source_key
		 WHERE r.record_id = ?`, recordID)
	return scanRecord(row)
}

// ListRecords returns a page of record summaries, newest first, optionally
// filtered by a case-insensitive title/channel match. Also returns the total
// count for the filter.
func (s *SQLiteStore) ListRecords(ctx context.Context, page, pageSize int, search string) ([]RecordSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	where := ""
	args := []interface{}{}
	if search != "" {
		where = ` WHERE s.title LIKE ? COLLATE NOCASE OR s.channel LIKE ? COLLATE NOCASE`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM note_records r JOIN sources s ON s.source_key = r.source_key` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT r.record_id, r.source_key, s.source_url, s.title, s.channel, r.concepts, r.created_at
		 FROM note_records r
		 JOIN sources s ON s.source_key = r.source_key` + where +
		` ORDER BY r.created_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []RecordSummary
	for rows.Next() {
		var sum RecordSummary
		var concepts string
		if err := rows.Scan(&sum.RecordID, &sum.SourceKey, &sum.SourceURL, &sum.Title, &sum.Channel, &concepts, &sum.CreatedAt); err != nil {
			return nil, 0, err
		}
		var parsed []domain.Concept
		if err := json.Unmarshal([]byte(concepts), &parsed); err == nil {
			sum.ConceptCount = len(parsed)
		}
		summaries = append(summaries, sum)
	}
	return summaries, total, rows.Err()
}

// DeleteRecord removes one record. Returns false when no such record exists.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, recordID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM note_records WHERE record_id = ?`, recordID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.CacheRecord, error) {
	var rec domain.CacheRecord
	var concepts, trace string
	var classification sql.NullString

	err := row.Scan(&rec.RecordID, &rec.Record.SourceKey, &rec.Record.SourceURL,
		&rec.Record.Meta.Title, &rec.Record.Meta.Channel, &rec.Record.Meta.Duration,
		&rec.Record.Transcript, &rec.Record.Notes, &concepts, &classification, &trace, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(concepts), &rec.Record.Concepts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal concepts: %w", err)
	}
	if err := json.Unmarshal([]byte(trace), &rec.Record.TaskTrace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task trace: %w", err)
	}
	if classification.Valid {
		var cls domain.Classification
		if err := json.Unmarshal([]byte(classification.String), &cls); err != nil {
			return nil, fmt.Errorf("failed to unmarshal classification: %w", err)
		}
		rec.Record.Classification = &cls
	}
	return &rec, nil
}
