// Package storage defines the persistence contract for room snapshots.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no snapshot exists for the requested room.
var ErrNotFound = errors.New("snapshot not found")

// RoomRecord is one persisted room snapshot.
type RoomRecord struct {
	RoomID    string
	Snapshot  []byte
	UpdatedAt time.Time
}

// SnapshotStore persists the latest observable state of each room.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, record RoomRecord) error
	LoadSnapshot(ctx context.Context, roomID string) (RoomRecord, error)
	ListSnapshots(ctx context.Context) ([]RoomRecord, error)
	DeleteSnapshot(ctx context.Context, roomID string) error
	Close() error
}
