// Package store persists raw annotation payloads and processed listings.
// It degrades gracefully: when the backing database is unavailable a
// fallback identifier is returned instead of an error so a storage outage
// never fails a processing job.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RecordStore is the persistence contract consumed by the processor.
type RecordStore interface {
	StoreRaw(ctx context.Context, fileName string, payload []byte) string
	StoreProcessed(ctx context.Context, fileName, rawID, driveFileID string, payload []byte) string
	GetProcessed(ctx context.Context, id string) (*ProcessedRecord, error)
	ListProcessed(ctx context.Context, limit int) ([]*ProcessedRecord, error)
}

type ProcessedRecord struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	RawID       string    `json:"raw_id"`
	DriveFileID string    `json:"drive_file_id,omitempty"`
	Payload     string    `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}

// SQLiteStore is the production RecordStore.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger}
}

// StoreRaw persists the raw annotation payload and returns its id. On
// failure a fallback local id is returned and the error only logged.
func (s *SQLiteStore) StoreRaw(ctx context.Context, fileName string, payload []byte) string {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_analyses (id, file_name, payload, created_at)
		VALUES (?, ?, ?, ?)
	`, id, fileName, string(payload), time.Now().Format(time.RFC3339))
	if err != nil {
		fallback := fallbackID()
		s.logger.Warn("raw record store degraded, using fallback id",
			"file", fileName, "fallback_id", fallback, "error", err)
		return fallback
	}
	return id
}

// StoreProcessed persists the processed listing payload and returns its id,
// with the same degradation behavior as StoreRaw.
func (s *SQLiteStore) StoreProcessed(ctx context.Context, fileName, rawID, driveFileID string, payload []byte) string {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_listings (id, file_name, raw_id, drive_file_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, fileName, rawID, nullString(driveFileID), string(payload), time.Now().Format(time.RFC3339))
	if err != nil {
		fallback := fallbackID()
		s.logger.Warn("processed record store degraded, using fallback id",
			"file", fileName, "fallback_id", fallback, "error", err)
		return fallback
	}
	return id
}

func (s *SQLiteStore) GetProcessed(ctx context.Context, id string) (*ProcessedRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file_name, raw_id, drive_file_id, payload, created_at
		FROM processed_listings WHERE id = ?
	`, id)
	return scanProcessed(row)
}

func (s *SQLiteStore) ListProcessed(ctx context.Context, limit int) ([]*ProcessedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_name, raw_id, drive_file_id, payload, created_at
		FROM processed_listings ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ProcessedRecord
	for rows.Next() {
		var r ProcessedRecord
		var driveFileID sql.NullString
		var createdAt string
		if err := rows.Scan(&r.ID, &r.FileName, &r.RawID, &driveFileID, &r.Payload, &createdAt); err != nil {
			return nil, err
		}
		r.DriveFileID = driveFileID.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		records = append(records, &r)
	}
	return records, rows.Err()
}

func scanProcessed(row *sql.Row) (*ProcessedRecord, error) {
	var r ProcessedRecord
	var driveFileID sql.NullString
	var createdAt string

	err := row.Scan(&r.ID, &r.FileName, &r.RawID, &driveFileID, &r.Payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.DriveFileID = driveFileID.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

func fallbackID() string {
	return "local-" + uuid.New().String()
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
