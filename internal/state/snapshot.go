package state

import (
	"time"

	"github.com/fableroom/fableroom/internal/domain/turn"
)

// The snapshot types are the observable room shape served to inspection
// tooling and persisted by the archiver. They mirror the entity model
// field for field.

// SettingsSnapshot carries the room's player-count bounds.
type SettingsSnapshot struct {
	MinPlayers int `json:"min_players"`
	MaxPlayers int `json:"max_players"`
}

// PlayerSnapshot is the observable player shape.
type PlayerSnapshot struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Alive      bool           `json:"alive"`
	Health     int            `json:"health"`
	Attributes map[string]int `json:"attributes"`
	Items      []string       `json:"items"`
	Ready      bool           `json:"is_ready"`
	JoinedAt   time.Time      `json:"joined_at"`
}

// DiceResultSnapshot is the observable dice resolution shape.
type DiceResultSnapshot struct {
	Action     string `json:"action"`
	Roll       int    `json:"roll"`
	Difficulty int    `json:"difficulty"`
	Success    bool   `json:"success"`
}

// NextTurnSnapshot is the observable next-turn directive shape.
type NextTurnSnapshot struct {
	TurnType      string   `json:"turn_type"`
	ActivePlayers []string `json:"active_players"`
}

// TurnSnapshot is the observable turn shape.
type TurnSnapshot struct {
	ID            string                        `json:"id"`
	TurnType      string                        `json:"turn_type"`
	TurnMode      string                        `json:"turn_mode"`
	Difficulty    int                           `json:"difficulty,omitempty"`
	ActivePlayers []string                      `json:"active_players"`
	Actions       map[string]string             `json:"actions"`
	DiceResults   map[string]DiceResultSnapshot `json:"dice_results"`
	NextTurnInfo  *NextTurnSnapshot             `json:"next_turn_info,omitempty"`
	Status        string                        `json:"status"`
	CreatedAt     time.Time                     `json:"created_at"`
	CompletedAt   *time.Time                    `json:"completed_at,omitempty"`
}

// MatchSnapshot is the observable match shape.
type MatchSnapshot struct {
	ID            string         `json:"id"`
	Scene         string         `json:"scene"`
	Status        string         `json:"status"`
	Turns         []TurnSnapshot `json:"turns"`
	CurrentTurnID string         `json:"current_turn_id,omitempty"`
	GameState     map[string]any `json:"game_state,omitempty"`
	Result        string         `json:"result,omitempty"`
}

// RoomSnapshot is the observable room shape.
type RoomSnapshot struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	HostID         string           `json:"host_id"`
	Players        []PlayerSnapshot `json:"players"`
	Settings       SettingsSnapshot `json:"settings"`
	CurrentMatchID string           `json:"current_match_id,omitempty"`
	Matches        []MatchSnapshot  `json:"matches"`
}

// Snapshot produces the observable shape of the room state. The caller must
// hold the room's serialization domain (call inside WithRoom).
func (rs *RoomState) Snapshot() RoomSnapshot {
	snap := RoomSnapshot{
		ID:     rs.Room.ID,
		Name:   rs.Room.Name,
		HostID: rs.Room.HostID,
		Settings: SettingsSnapshot{
			MinPlayers: rs.Room.Settings.MinPlayers,
			MaxPlayers: rs.Room.Settings.MaxPlayers,
		},
		CurrentMatchID: rs.Room.CurrentMatchID,
		Players:        make([]PlayerSnapshot, 0, len(rs.Room.PlayerIDs)),
		Matches:        make([]MatchSnapshot, 0, len(rs.Matches)),
	}

	for _, id := range rs.Room.PlayerIDs {
		p, ok := rs.Players[id]
		if !ok {
			continue
		}
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Alive:      p.Alive,
			Health:     p.Health,
			Attributes: p.Attributes,
			Items:      p.Items,
			Ready:      p.Ready,
			JoinedAt:   p.JoinedAt,
		})
	}

	for _, m := range rs.Matches {
		ms := MatchSnapshot{
			ID:            m.ID,
			Scene:         m.Scene,
			Status:        string(m.Status),
			CurrentTurnID: m.CurrentTurnID,
			GameState:     m.GameState,
			Result:        m.Result,
			Turns:         make([]TurnSnapshot, 0, len(m.TurnIDs)),
		}
		for _, turnID := range m.TurnIDs {
			t, ok := rs.Turns[turnID]
			if !ok {
				continue
			}
			ms.Turns = append(ms.Turns, snapshotTurn(t))
		}
		snap.Matches = append(snap.Matches, ms)
	}
	return snap
}

func snapshotTurn(t turn.Turn) TurnSnapshot {
	ts := TurnSnapshot{
		ID:            t.ID,
		TurnType:      string(t.Type),
		TurnMode:      t.Mode,
		Difficulty:    t.Difficulty,
		ActivePlayers: append([]string(nil), t.ActivePlayers...),
		Actions:       make(map[string]string, len(t.Actions)),
		DiceResults:   make(map[string]DiceResultSnapshot, len(t.DiceResults)),
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
	}
	for k, v := range t.Actions {
		ts.Actions[k] = v
	}
	for k, v := range t.DiceResults {
		ts.DiceResults[k] = DiceResultSnapshot{
			Action:     v.Action,
			Roll:       v.Roll,
			Difficulty: v.Difficulty,
			Success:    v.Success,
		}
	}
	if t.NextTurn != nil {
		ts.NextTurnInfo = &NextTurnSnapshot{
			TurnType:      string(t.NextTurn.TurnType),
			ActivePlayers: append([]string(nil), t.NextTurn.ActivePlayers...),
		}
	}
	if !t.CompletedAt.IsZero() {
		completed := t.CompletedAt
		ts.CompletedAt = &completed
	}
	return ts
}
