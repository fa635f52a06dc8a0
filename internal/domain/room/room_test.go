package room

import (
	"errors"
	"testing"
	"time"
)

func newTestRoom(t *testing.T, max int) Room {
	t.Helper()
	r, err := New("room-1", "The Sunken Keep", "host-1", Settings{MinPlayers: 1, MaxPlayers: max}, time.Now())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNewValidation(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		roomName string
		settings Settings
		wantErr  error
	}{
		{name: "valid", roomName: "keep", settings: Settings{MinPlayers: 1, MaxPlayers: 4}},
		{name: "empty name", roomName: "", settings: Settings{MinPlayers: 1, MaxPlayers: 4}, wantErr: ErrEmptyName},
		{name: "zero min players", roomName: "keep", settings: Settings{MinPlayers: 0, MaxPlayers: 4}, wantErr: ErrInvalidSettings},
		{name: "max below min", roomName: "keep", settings: Settings{MinPlayers: 3, MaxPlayers: 2}, wantErr: ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New("room-1", tt.roomName, "host-1", tt.settings, now)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got.HostID != "host-1" {
				t.Fatalf("HostID = %q, want %q", got.HostID, "host-1")
			}
			if len(got.PlayerIDs) != 1 || got.PlayerIDs[0] != "host-1" {
				t.Fatalf("PlayerIDs = %v, want host only", got.PlayerIDs)
			}
		})
	}
}

func TestAddPlayer(t *testing.T) {
	r := newTestRoom(t, 2)

	updated, err := r.AddPlayer("p1")
	if err != nil {
		t.Fatalf("AddPlayer() error = %v", err)
	}
	if len(updated.PlayerIDs) != 2 {
		t.Fatalf("player count = %d, want 2", len(updated.PlayerIDs))
	}
	if len(r.PlayerIDs) != 1 {
		t.Fatal("expected receiver to be unchanged")
	}

	if _, err := updated.AddPlayer("p1"); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("AddPlayer(duplicate) error = %v, want %v", err, ErrDuplicatePlayer)
	}
	if _, err := updated.AddPlayer("p2"); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("AddPlayer(full) error = %v, want %v", err, ErrCapacityExceeded)
	}
}

func TestRemovePlayer(t *testing.T) {
	r := newTestRoom(t, 4)
	r, _ = r.AddPlayer("p1")
	r, _ = r.AddPlayer("p2")

	updated, err := r.RemovePlayer("p1")
	if err != nil {
		t.Fatalf("RemovePlayer() error = %v", err)
	}
	if updated.HasPlayer("p1") {
		t.Fatal("expected p1 to be removed")
	}
	if got := updated.PlayerIDs; len(got) != 2 || got[0] != "host-1" || got[1] != "p2" {
		t.Fatalf("PlayerIDs = %v, want join order preserved", got)
	}

	if _, err := updated.RemovePlayer("absent"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("RemovePlayer(absent) error = %v, want %v", err, ErrPlayerNotFound)
	}
}

func TestWithHost(t *testing.T) {
	r := newTestRoom(t, 4)
	r, _ = r.AddPlayer("p1")

	updated, err := r.WithHost("p1")
	if err != nil {
		t.Fatalf("WithHost() error = %v", err)
	}
	if !updated.IsHost("p1") {
		t.Fatal("expected p1 to be host")
	}

	if _, err := r.WithHost("absent"); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("WithHost(absent) error = %v, want %v", err, ErrPlayerNotFound)
	}
}

func TestLongestTenured(t *testing.T) {
	r := newTestRoom(t, 4)
	r, _ = r.AddPlayer("p1")
	r, _ = r.AddPlayer("p2")

	got, ok := r.LongestTenured("host-1")
	if !ok || got != "p1" {
		t.Fatalf("LongestTenured() = %q, %v, want %q, true", got, ok, "p1")
	}

	solo := newTestRoom(t, 4)
	if _, ok := solo.LongestTenured("host-1"); ok {
		t.Fatal("expected no candidate in a single-player room")
	}
}

func TestMatchReference(t *testing.T) {
	r := newTestRoom(t, 4)
	r = r.WithCurrentMatch("match-1")
	if r.CurrentMatchID != "match-1" {
		t.Fatalf("CurrentMatchID = %q, want %q", r.CurrentMatchID, "match-1")
	}
	r = r.ClearCurrentMatch()
	if r.CurrentMatchID != "" {
		t.Fatalf("CurrentMatchID = %q, want empty", r.CurrentMatchID)
	}
}
