// Package sqlite provides SQLite-backed snapshot persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fableroom/fableroom/internal/storage"
)

// Store provides SQLite-backed persistence for room snapshots.
type Store struct {
	sqlDB *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS room_snapshots (
	room_id TEXT PRIMARY KEY,
	snapshot BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Open opens and initializes a snapshot store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSnapshot upserts the latest snapshot for a room.
func (s *Store) SaveSnapshot(ctx context.Context, record storage.RoomRecord) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	record.RoomID = strings.TrimSpace(record.RoomID)
	if record.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	if len(record.Snapshot) == 0 {
		return fmt.Errorf("snapshot payload is required")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO room_snapshots (room_id, snapshot, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(room_id) DO UPDATE SET
		   snapshot = excluded.snapshot,
		   updated_at = excluded.updated_at`,
		record.RoomID,
		record.Snapshot,
		timeToUnixMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot loads the latest snapshot for a room.
func (s *Store) LoadSnapshot(ctx context.Context, roomID string) (storage.RoomRecord, error) {
	if s == nil || s.sqlDB == nil {
		return storage.RoomRecord{}, fmt.Errorf("storage is not configured")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return storage.RoomRecord{}, fmt.Errorf("room id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT room_id, snapshot, updated_at FROM room_snapshots WHERE room_id = ?`,
		roomID,
	)

	var record storage.RoomRecord
	var updatedAt int64
	if err := row.Scan(&record.RoomID, &record.Snapshot, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return storage.RoomRecord{}, storage.ErrNotFound
		}
		return storage.RoomRecord{}, fmt.Errorf("load snapshot: %w", err)
	}
	record.UpdatedAt = unixMillisToTime(updatedAt)
	return record, nil
}

// ListSnapshots returns every persisted room snapshot ordered by room id.
func (s *Store) ListSnapshots(ctx context.Context) ([]storage.RoomRecord, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT room_id, snapshot, updated_at FROM room_snapshots ORDER BY room_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]storage.RoomRecord, 0)
	for rows.Next() {
		var record storage.RoomRecord
		var updatedAt int64
		if err := rows.Scan(&record.RoomID, &record.Snapshot, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		record.UpdatedAt = unixMillisToTime(updatedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return records, nil
}

// DeleteSnapshot removes the snapshot for a room.
func (s *Store) DeleteSnapshot(ctx context.Context, roomID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM room_snapshots WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ storage.SnapshotStore = (*Store)(nil)
