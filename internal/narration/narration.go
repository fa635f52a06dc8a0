// Package narration defines the contract with the story collaborator.
//
// The collaborator is an opaque external service: given the current scene,
// roster, and collected actions it returns structured updates that drive the
// next turn. The engine treats it as slow and fallible; callers invoke it
// outside any room lock and apply Fallback when the retry budget is spent.
package narration

import "context"

// MatchResult is the collaborator's verdict on the match.
type MatchResult string

const (
	ResultContinue MatchResult = "CONTINUE"
	ResultWon      MatchResult = "WON"
	ResultLost     MatchResult = "LOST"
)

// RosterEntry describes one player for the collaborator.
type RosterEntry struct {
	PlayerID   string         `json:"player_id"`
	Name       string         `json:"name"`
	Alive      bool           `json:"alive"`
	Health     int            `json:"health"`
	Attributes map[string]int `json:"attributes,omitempty"`
	Items      []string       `json:"items,omitempty"`
}

// DiceOutcome describes one resolved dice check for the collaborator.
type DiceOutcome struct {
	Action     string `json:"action"`
	Roll       int    `json:"roll"`
	Difficulty int    `json:"difficulty"`
	Success    bool   `json:"success"`
}

// Request carries everything the collaborator needs to narrate a turn.
type Request struct {
	Scene       string                 `json:"scene"`
	GameState   map[string]any         `json:"game_state,omitempty"`
	Roster      []RosterEntry          `json:"roster"`
	Actions     map[string]string      `json:"actions"`
	DiceResults map[string]DiceOutcome `json:"dice_results,omitempty"`
	History     []string               `json:"history,omitempty"`
}

// Item update operations.
const (
	ItemOpAdd    = "add"
	ItemOpRemove = "remove"
)

// ItemUpdate adds or removes an item from a player's inventory.
type ItemUpdate struct {
	PlayerID string `json:"player_id"`
	Item     string `json:"item"`
	Op       string `json:"op"`
}

// AttributeUpdate applies a delta to a named player attribute. The name
// "health" routes through the health path and can kill a player.
type AttributeUpdate struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Delta    int    `json:"delta"`
}

// NextTurn is the collaborator's directive for the turn that follows.
type NextTurn struct {
	TurnType      string   `json:"turn_type"`
	ActivePlayers []string `json:"active_players"`
}

// Response is the collaborator's structured reply.
type Response struct {
	Narration        string            `json:"narration"`
	LocationUpdates  map[string]string `json:"location_updates,omitempty"`
	ItemUpdates      []ItemUpdate      `json:"item_updates,omitempty"`
	AttributeUpdates []AttributeUpdate `json:"attribute_updates,omitempty"`
	NeedDiceRoll     bool              `json:"need_dice_roll"`
	Difficulty       int               `json:"difficulty,omitempty"`
	ActionDesc       string            `json:"action_desc,omitempty"`
	NextTurn         *NextTurn         `json:"next_turn_info,omitempty"`
	MatchResult      MatchResult       `json:"match_result,omitempty"`
}

// Collaborator produces a narration response for a DM turn.
type Collaborator interface {
	Narrate(ctx context.Context, req Request) (Response, error)
}

// Fallback is the degraded default applied when the collaborator cannot be
// reached within the retry budget. It keeps the story moving: a plain
// continuation handing the turn to every living player with no dice check.
func Fallback(alivePlayers []string) Response {
	return Response{
		Narration:   "The story continues. What do you do next?",
		MatchResult: ResultContinue,
		NextTurn: &NextTurn{
			TurnType:      "PLAYER",
			ActivePlayers: append([]string(nil), alivePlayers...),
		},
	}
}
