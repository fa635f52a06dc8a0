// Package turn defines the turn entity and its completion rules.
//
// A turn is one DM-narration or player-action round within a match. The
// completion rules are normative: a DM turn completes once the single action
// keyed by the DM sentinel is recorded; a PLAYER turn completes once every
// active player has an action and, in dice mode, a dice result.
package turn

import (
	"errors"
	"time"
)

// Type distinguishes DM narration rounds from player-action rounds.
type Type string

const (
	TypeDM     Type = "DM"
	TypePlayer Type = "PLAYER"
)

// Status represents the lifecycle stage of a turn.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// Turn modes. ModeDice requires a dice result per player action.
const (
	ModeFree = "free"
	ModeDice = "dice"
)

// DMActorID is the sentinel actor id whose action drives a DM turn.
const DMActorID = "dm_narration"

// ErrTurnNotActive indicates the turn is not accepting actions.
var ErrTurnNotActive = errors.New("turn is not active")

// ErrInactivePlayer indicates the actor is not expected to act this turn.
var ErrInactivePlayer = errors.New("actor not in active players")

// ErrDuplicateAction indicates the actor already acted this turn.
var ErrDuplicateAction = errors.New("actor already acted this turn")

// ErrDiceNotRequired indicates a dice result was recorded on a free turn.
var ErrDiceNotRequired = errors.New("turn mode does not require dice")

// DiceResult records the resolution of one player's dice check.
type DiceResult struct {
	Action     string
	Roll       int
	Difficulty int
	Success    bool
}

// NextTurnInfo carries the narration collaborator's directive for the
// turn that should follow this one. Mode and Difficulty apply when the
// directed turn is a dice-mode PLAYER turn.
type NextTurnInfo struct {
	TurnType      Type
	ActivePlayers []string
	Mode          string
	Difficulty    int
}

// Turn is one round within a match.
//
// Mutating methods return an updated copy and never modify the receiver.
// A COMPLETED turn is immutable except for being superseded by a new turn.
type Turn struct {
	ID            string
	MatchID       string
	Type          Type
	Mode          string
	Difficulty    int
	ActivePlayers []string
	Actions       map[string]string
	DiceResults   map[string]DiceResult
	NextTurn      *NextTurnInfo
	Status        Status
	CreatedAt     time.Time
	CompletedAt   time.Time
}

// New constructs a pending turn. Activation happens when the turn is
// installed as the match's current turn.
func New(id, matchID string, typ Type, mode string, difficulty int, activePlayers []string, now time.Time) Turn {
	return Turn{
		ID:            id,
		MatchID:       matchID,
		Type:          typ,
		Mode:          mode,
		Difficulty:    difficulty,
		ActivePlayers: append([]string(nil), activePlayers...),
		Actions:       map[string]string{},
		DiceResults:   map[string]DiceResult{},
		Status:        StatusPending,
		CreatedAt:     now,
	}
}

// Activate moves the turn from PENDING to ACTIVE.
func (t Turn) Activate() (Turn, error) {
	if t.Status != StatusPending {
		return Turn{}, ErrTurnNotActive
	}
	updated := t
	updated.Status = StatusActive
	return updated, nil
}

// RecordAction records an actor's narrated action.
//
// DM turns accept only the DM sentinel; PLAYER turns accept only ids in the
// active set. Each actor may act once per turn.
func (t Turn) RecordAction(actorID, text string) (Turn, error) {
	if t.Status != StatusActive {
		return Turn{}, ErrTurnNotActive
	}
	if !t.expectsActor(actorID) {
		return Turn{}, ErrInactivePlayer
	}
	if _, ok := t.Actions[actorID]; ok {
		return Turn{}, ErrDuplicateAction
	}
	updated := t
	updated.Actions = copyActions(t.Actions)
	updated.Actions[actorID] = text
	return updated, nil
}

// RecordDiceResult records the resolution of a player's dice check. Only
// valid in dice mode for players in the active set.
func (t Turn) RecordDiceResult(playerID string, result DiceResult) (Turn, error) {
	if t.Status != StatusActive {
		return Turn{}, ErrTurnNotActive
	}
	if !t.RequiresDice() {
		return Turn{}, ErrDiceNotRequired
	}
	if !t.IsActivePlayer(playerID) {
		return Turn{}, ErrInactivePlayer
	}
	updated := t
	updated.DiceResults = copyDiceResults(t.DiceResults)
	updated.DiceResults[playerID] = result
	return updated, nil
}

// Complete moves the turn from ACTIVE to COMPLETED and stamps the time.
func (t Turn) Complete(now time.Time) (Turn, error) {
	if t.Status != StatusActive {
		return Turn{}, ErrTurnNotActive
	}
	updated := t
	updated.Status = StatusCompleted
	updated.CompletedAt = now
	return updated, nil
}

// WithNextTurn records the directive for the subsequent turn.
func (t Turn) WithNextTurn(info NextTurnInfo) Turn {
	updated := t
	copied := info
	copied.ActivePlayers = append([]string(nil), info.ActivePlayers...)
	updated.NextTurn = &copied
	return updated
}

// RemoveActivePlayer drops a player from the active set so a departed or
// dead player cannot hold the turn open. Removing an absent id is a no-op.
func (t Turn) RemoveActivePlayer(playerID string) Turn {
	updated := t
	updated.ActivePlayers = make([]string, 0, len(t.ActivePlayers))
	for _, id := range t.ActivePlayers {
		if id != playerID {
			updated.ActivePlayers = append(updated.ActivePlayers, id)
		}
	}
	return updated
}

// ActionsComplete reports whether every expected action (and dice result,
// when the mode requires one) has been recorded.
func (t Turn) ActionsComplete() bool {
	if t.Type == TypeDM {
		_, ok := t.Actions[DMActorID]
		return ok
	}
	for _, id := range t.ActivePlayers {
		if _, ok := t.Actions[id]; !ok {
			return false
		}
		if t.RequiresDice() {
			if _, ok := t.DiceResults[id]; !ok {
				return false
			}
		}
	}
	return true
}

// RequiresDice reports whether player actions need a dice resolution.
func (t Turn) RequiresDice() bool {
	return t.Mode == ModeDice
}

// IsActivePlayer reports whether the player is expected to act this turn.
func (t Turn) IsActivePlayer(playerID string) bool {
	for _, id := range t.ActivePlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

func (t Turn) expectsActor(actorID string) bool {
	if t.Type == TypeDM {
		return actorID == DMActorID
	}
	return t.IsActivePlayer(actorID)
}

func copyActions(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyDiceResults(src map[string]DiceResult) map[string]DiceResult {
	dst := make(map[string]DiceResult, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
