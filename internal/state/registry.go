// Package state holds the process-wide game state registry.
//
// The registry is the only process-wide mutable state. It owns the canonical
// room collection plus two derived indexes (player to room, player to
// character) and provides the per-room serialization domain: all reads and
// writes of a room's entities happen inside WithRoom, so commands touching
// different rooms never block each other while commands within one room are
// fully serialized.
package state

import (
	"sync"

	"github.com/fableroom/fableroom/internal/domain/character"
	"github.com/fableroom/fableroom/internal/domain/match"
	"github.com/fableroom/fableroom/internal/domain/player"
	"github.com/fableroom/fableroom/internal/domain/room"
	"github.com/fableroom/fableroom/internal/domain/turn"
	"github.com/fableroom/fableroom/internal/platform/errors"
)

// RoomState bundles a room's entities. Matches and turns are keyed by id and
// carry only their parent's id, never a direct reference.
type RoomState struct {
	Room       room.Room
	Players    map[string]player.Player
	Matches    map[string]match.Match
	Turns      map[string]turn.Turn
	Characters map[string]character.Character // keyed by player id
}

// NewRoomState wraps a room with empty entity maps.
func NewRoomState(r room.Room) *RoomState {
	return &RoomState{
		Room:       r,
		Players:    make(map[string]player.Player),
		Matches:    make(map[string]match.Match),
		Turns:      make(map[string]turn.Turn),
		Characters: make(map[string]character.Character),
	}
}

// CurrentMatch returns the room's active match, if any.
func (rs *RoomState) CurrentMatch() (match.Match, bool) {
	if rs.Room.CurrentMatchID == "" {
		return match.Match{}, false
	}
	m, ok := rs.Matches[rs.Room.CurrentMatchID]
	return m, ok
}

// CurrentTurn returns the active match's current turn, if any.
func (rs *RoomState) CurrentTurn() (turn.Turn, bool) {
	m, ok := rs.CurrentMatch()
	if !ok || m.CurrentTurnID == "" {
		return turn.Turn{}, false
	}
	t, ok := rs.Turns[m.CurrentTurnID]
	return t, ok
}

// AlivePlayerIDs returns the ids of living players in join order.
func (rs *RoomState) AlivePlayerIDs() []string {
	ids := make([]string, 0, len(rs.Room.PlayerIDs))
	for _, id := range rs.Room.PlayerIDs {
		if p, ok := rs.Players[id]; ok && p.Alive {
			ids = append(ids, id)
		}
	}
	return ids
}

type entry struct {
	mu    sync.Mutex
	state *RoomState
}

// Registry is the authoritative store of all rooms.
type Registry struct {
	mu              sync.RWMutex
	rooms           map[string]*entry
	playerRoom      map[string]string
	playerCharacter map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:           make(map[string]*entry),
		playerRoom:      make(map[string]string),
		playerCharacter: make(map[string]string),
	}
}

// Register installs a new room.
func (r *Registry) Register(rs *RoomState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[rs.Room.ID]; ok {
		return errors.New(errors.CodeRoomExists, "room already registered: "+rs.Room.ID)
	}
	r.rooms[rs.Room.ID] = &entry{state: rs}
	return nil
}

// Unregister removes a room. Index entries for its players are the caller's
// responsibility.
func (r *Registry) Unregister(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// WithRoom runs fn inside the room's serialization domain. Every read or
// write of the room's entities must go through here.
func (r *Registry) WithRoom(roomID string, fn func(*RoomState) error) error {
	r.mu.RLock()
	e, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return errors.New(errors.CodeRoomNotFound, "room not registered: "+roomID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.state)
}

// TryMapPlayerToRoom claims the player for a room. The claim fails when the
// player is already mapped to any room, so concurrent joins into different
// rooms cannot both commit: membership in at most one room is enforced here,
// atomically, not by the callers' pre-checks.
func (r *Registry) TryMapPlayerToRoom(playerID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.playerRoom[playerID]; ok {
		return false
	}
	r.playerRoom[playerID] = roomID
	return true
}

// UnmapPlayer drops a player from both indexes.
func (r *Registry) UnmapPlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playerRoom, playerID)
	delete(r.playerCharacter, playerID)
}

// RoomForPlayer returns the room a player is mapped to.
func (r *Registry) RoomForPlayer(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.playerRoom[playerID]
	return roomID, ok
}

// MapPlayerToCharacter records the character a player controls.
func (r *Registry) MapPlayerToCharacter(playerID, characterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playerCharacter[playerID] = characterID
}

// CharacterForPlayer returns the character a player is mapped to.
func (r *Registry) CharacterForPlayer(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	characterID, ok := r.playerCharacter[playerID]
	return characterID, ok
}

// RoomIDs returns the ids of all registered rooms.
func (r *Registry) RoomIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	return ids
}
