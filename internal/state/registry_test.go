package state

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fableroom/fableroom/internal/domain/match"
	"github.com/fableroom/fableroom/internal/domain/player"
	"github.com/fableroom/fableroom/internal/domain/room"
	"github.com/fableroom/fableroom/internal/domain/turn"
	"github.com/fableroom/fableroom/internal/platform/errors"
)

func newTestRoomState(t *testing.T, roomID string) *RoomState {
	t.Helper()
	r, err := room.New(roomID, "test room", "host-1", room.Settings{MinPlayers: 1, MaxPlayers: 4}, time.Now())
	if err != nil {
		t.Fatalf("room.New() error = %v", err)
	}
	rs := NewRoomState(r)
	rs.Players["host-1"] = player.New("host-1", "Host", time.Now())
	return rs
}

func TestRegisterAndWithRoom(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newTestRoomState(t, "room-1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := reg.WithRoom("room-1", func(rs *RoomState) error {
		if rs.Room.ID != "room-1" {
			t.Fatalf("Room.ID = %q, want %q", rs.Room.ID, "room-1")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRoom() error = %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newTestRoomState(t, "room-1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	err := reg.Register(newTestRoomState(t, "room-1"))
	if !stderrors.Is(err, errors.New(errors.CodeRoomExists, "")) {
		t.Fatalf("Register(duplicate) error = %v, want code %s", err, errors.CodeRoomExists)
	}
}

func TestWithRoomUnknown(t *testing.T) {
	reg := NewRegistry()
	err := reg.WithRoom("absent", func(*RoomState) error { return nil })
	if !stderrors.Is(err, errors.New(errors.CodeRoomNotFound, "")) {
		t.Fatalf("WithRoom(absent) error = %v, want code %s", err, errors.CodeRoomNotFound)
	}
}

func TestUnregister(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newTestRoomState(t, "room-1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	reg.Unregister("room-1")
	if err := reg.WithRoom("room-1", func(*RoomState) error { return nil }); err == nil {
		t.Fatal("expected unregistered room to be gone")
	}
}

func TestPlayerIndexes(t *testing.T) {
	reg := NewRegistry()
	if !reg.TryMapPlayerToRoom("p1", "room-1") {
		t.Fatal("TryMapPlayerToRoom() = false, want first claim to succeed")
	}
	reg.MapPlayerToCharacter("p1", "c1")

	if got, ok := reg.RoomForPlayer("p1"); !ok || got != "room-1" {
		t.Fatalf("RoomForPlayer() = %q, %v, want room-1, true", got, ok)
	}
	if got, ok := reg.CharacterForPlayer("p1"); !ok || got != "c1" {
		t.Fatalf("CharacterForPlayer() = %q, %v, want c1, true", got, ok)
	}

	if reg.TryMapPlayerToRoom("p1", "room-2") {
		t.Fatal("TryMapPlayerToRoom() = true, want claim refused while mapped")
	}
	if got, _ := reg.RoomForPlayer("p1"); got != "room-1" {
		t.Fatalf("RoomForPlayer() = %q, want the original claim intact", got)
	}

	reg.UnmapPlayer("p1")
	if _, ok := reg.RoomForPlayer("p1"); ok {
		t.Fatal("expected player unmapped from room index")
	}
	if _, ok := reg.CharacterForPlayer("p1"); ok {
		t.Fatal("expected player unmapped from character index")
	}
	if !reg.TryMapPlayerToRoom("p1", "room-2") {
		t.Fatal("TryMapPlayerToRoom() = false, want claim to succeed after unmap")
	}
}

func TestTryMapPlayerToRoomSingleWinner(t *testing.T) {
	reg := NewRegistry()

	const claimants = 16
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < claimants; i++ {
		roomID := fmt.Sprintf("room-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.TryMapPlayerToRoom("p1", roomID) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("wins = %d, want exactly one claim to succeed", wins.Load())
	}
	if _, ok := reg.RoomForPlayer("p1"); !ok {
		t.Fatal("expected the winning claim to be recorded")
	}
}

func TestWithRoomSerializesWithinARoom(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newTestRoomState(t, "room-1")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	const workers = 32
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.WithRoom("room-1", func(rs *RoomState) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Fatalf("counter = %d, want %d serialized increments", counter, workers)
	}
}

func TestSnapshotShape(t *testing.T) {
	rs := newTestRoomState(t, "room-1")
	m := match.New("m1", "room-1", "a dark cave", time.Now())
	m, _ = m.Start()
	tn := turn.New("t1", "m1", turn.TypeDM, turn.ModeFree, 0, nil, time.Now())
	tn, _ = tn.Activate()
	m = m.AppendTurn("t1")
	rs.Matches["m1"] = m
	rs.Turns["t1"] = tn
	rs.Room = rs.Room.WithCurrentMatch("m1")

	snap := rs.Snapshot()
	if snap.ID != "room-1" || snap.HostID != "host-1" {
		t.Fatalf("snapshot = %+v, want room identity preserved", snap)
	}
	if len(snap.Players) != 1 || snap.Players[0].Health != player.DefaultHealth {
		t.Fatalf("Players = %+v, want single default-health player", snap.Players)
	}
	if len(snap.Matches) != 1 {
		t.Fatalf("Matches = %+v, want one match", snap.Matches)
	}
	got := snap.Matches[0]
	if got.Status != string(match.StatusActive) || got.CurrentTurnID != "t1" {
		t.Fatalf("match snapshot = %+v, want active with current turn t1", got)
	}
	if len(got.Turns) != 1 || got.Turns[0].TurnType != string(turn.TypeDM) {
		t.Fatalf("turn snapshots = %+v, want one DM turn", got.Turns)
	}
	if got.Turns[0].CompletedAt != nil {
		t.Fatal("expected open turn to have no completed_at")
	}
}
