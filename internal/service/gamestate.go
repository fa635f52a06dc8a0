package service

import (
	"sort"

	"github.com/fableroom/fableroom/internal/state"
)

// GameStateService owns the registry: room registration, the player
// indexes, and the read-side used by discovery and inspection commands.
type GameStateService struct {
	*core
}

// RoomSummary is the discovery shape served by ListRooms.
type RoomSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	InMatch    bool   `json:"in_match"`
}

// RoomForPlayer returns the room a player is mapped to.
func (s *GameStateService) RoomForPlayer(playerID string) (string, bool) {
	return s.registry.RoomForPlayer(playerID)
}

// CharacterForPlayer returns the character a player is mapped to.
func (s *GameStateService) CharacterForPlayer(playerID string) (string, bool) {
	return s.registry.CharacterForPlayer(playerID)
}

// Snapshot returns the observable state of a room.
func (s *GameStateService) Snapshot(roomID string) (Outcome, error) {
	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		col.out.Payload = rs.Snapshot()
		return nil
	})
}

// ListRooms returns a summary of every registered room, ordered by name
// for stable output.
func (s *GameStateService) ListRooms() (Outcome, error) {
	ids := s.registry.RoomIDs()
	summaries := make([]RoomSummary, 0, len(ids))
	for _, roomID := range ids {
		err := s.registry.WithRoom(roomID, func(rs *state.RoomState) error {
			m, ok := rs.CurrentMatch()
			summaries = append(summaries, RoomSummary{
				ID:         rs.Room.ID,
				Name:       rs.Room.Name,
				Players:    len(rs.Room.PlayerIDs),
				MaxPlayers: rs.Room.Settings.MaxPlayers,
				InMatch:    ok && m.InProgress(),
			})
			return nil
		})
		// Rooms deleted between listing and locking are skipped.
		if err != nil {
			continue
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name == summaries[j].Name {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].Name < summaries[j].Name
	})
	return Outcome{Payload: summaries}, nil
}
