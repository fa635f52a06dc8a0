// Package room defines the room entity and its pure operations.
//
// A room is a lobby of players sharing at most one active match. Operations
// never validate cross-entity rules and never produce user-facing text; the
// service layer owns both.
package room

import (
	"errors"
	"time"
)

// ErrEmptyName indicates a room was created without a name.
var ErrEmptyName = errors.New("room name must not be empty")

// ErrInvalidSettings indicates the player bounds are not satisfiable.
var ErrInvalidSettings = errors.New("room settings must allow at least one player")

// ErrCapacityExceeded indicates the room is at max players.
var ErrCapacityExceeded = errors.New("room is at player capacity")

// ErrDuplicatePlayer indicates the player is already in the room.
var ErrDuplicatePlayer = errors.New("player already in room")

// ErrPlayerNotFound indicates the player is not in the room.
var ErrPlayerNotFound = errors.New("player not in room")

// Settings holds the player-count bounds for a room.
type Settings struct {
	MinPlayers int
	MaxPlayers int
}

// Room represents a lobby of players.
//
// PlayerIDs is ordered by join time; the first entry is the longest-tenured
// player. Mutating methods return an updated copy and never modify the
// receiver.
type Room struct {
	ID             string
	Name           string
	HostID         string
	PlayerIDs      []string
	Settings       Settings
	CurrentMatchID string
	CreatedAt      time.Time
}

// New constructs a room with the host as its first player.
func New(id, name, hostID string, settings Settings, now time.Time) (Room, error) {
	if name == "" {
		return Room{}, ErrEmptyName
	}
	if settings.MinPlayers < 1 || settings.MaxPlayers < settings.MinPlayers {
		return Room{}, ErrInvalidSettings
	}
	return Room{
		ID:        id,
		Name:      name,
		HostID:    hostID,
		PlayerIDs: []string{hostID},
		Settings:  settings,
		CreatedAt: now,
	}, nil
}

// AddPlayer appends a player to the join order.
func (r Room) AddPlayer(playerID string) (Room, error) {
	if r.HasPlayer(playerID) {
		return Room{}, ErrDuplicatePlayer
	}
	if len(r.PlayerIDs) >= r.Settings.MaxPlayers {
		return Room{}, ErrCapacityExceeded
	}
	updated := r
	updated.PlayerIDs = append(append([]string(nil), r.PlayerIDs...), playerID)
	return updated, nil
}

// RemovePlayer removes a player from the join order. Host reassignment is a
// service concern; the returned room may temporarily name a host that is no
// longer a member.
func (r Room) RemovePlayer(playerID string) (Room, error) {
	idx := -1
	for i, id := range r.PlayerIDs {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Room{}, ErrPlayerNotFound
	}
	updated := r
	updated.PlayerIDs = make([]string, 0, len(r.PlayerIDs)-1)
	updated.PlayerIDs = append(updated.PlayerIDs, r.PlayerIDs[:idx]...)
	updated.PlayerIDs = append(updated.PlayerIDs, r.PlayerIDs[idx+1:]...)
	return updated, nil
}

// WithHost reassigns the host. The new host must be a member.
func (r Room) WithHost(playerID string) (Room, error) {
	if !r.HasPlayer(playerID) {
		return Room{}, ErrPlayerNotFound
	}
	updated := r
	updated.HostID = playerID
	return updated, nil
}

// WithCurrentMatch records the active match reference.
func (r Room) WithCurrentMatch(matchID string) Room {
	updated := r
	updated.CurrentMatchID = matchID
	return updated
}

// ClearCurrentMatch drops the active match reference.
func (r Room) ClearCurrentMatch() Room {
	updated := r
	updated.CurrentMatchID = ""
	return updated
}

// HasPlayer reports whether the player is a member.
func (r Room) HasPlayer(playerID string) bool {
	for _, id := range r.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// IsHost reports whether the player is the current host.
func (r Room) IsHost(playerID string) bool {
	return playerID == r.HostID
}

// IsFull reports whether the room is at max players.
func (r Room) IsFull() bool {
	return len(r.PlayerIDs) >= r.Settings.MaxPlayers
}

// Empty reports whether no players remain.
func (r Room) Empty() bool {
	return len(r.PlayerIDs) == 0
}

// LongestTenured returns the earliest-joined member other than exclude.
func (r Room) LongestTenured(exclude string) (string, bool) {
	for _, id := range r.PlayerIDs {
		if id != exclude {
			return id, true
		}
	}
	return "", false
}
