// Package match defines the match entity and its status state machine.
package match

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the lifecycle stage of a match.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusPaused  Status = "PAUSED"
	StatusEnded   Status = "ENDED"
)

// Result tags recorded when a match ends.
const (
	ResultWon       = "WON"
	ResultLost      = "LOST"
	ResultAbandoned = "ABANDONED"
)

// ErrInvalidTransition indicates a status change the state machine forbids.
var ErrInvalidTransition = errors.New("invalid match status transition")

// Match is one complete play session within a room.
//
// Turns are referenced by id only; the registry holds the turn records.
// GameState is an opaque blob owned by the narration collaborator.
type Match struct {
	ID            string
	RoomID        string
	Scene         string
	Status        Status
	TurnIDs       []string
	CurrentTurnID string
	GameState     map[string]any
	Result        string
	CreatedAt     time.Time
}

// New constructs a pending match.
func New(id, roomID, scene string, now time.Time) Match {
	return Match{
		ID:        id,
		RoomID:    roomID,
		Scene:     scene,
		Status:    StatusPending,
		CreatedAt: now,
	}
}

// Start moves the match from PENDING to ACTIVE.
func (m Match) Start() (Match, error) {
	if m.Status != StatusPending {
		return Match{}, transitionErr(m.Status, StatusActive)
	}
	updated := m
	updated.Status = StatusActive
	return updated, nil
}

// Pause moves the match from ACTIVE to PAUSED.
func (m Match) Pause() (Match, error) {
	if m.Status != StatusActive {
		return Match{}, transitionErr(m.Status, StatusPaused)
	}
	updated := m
	updated.Status = StatusPaused
	return updated, nil
}

// Resume moves the match from PAUSED back to ACTIVE.
func (m Match) Resume() (Match, error) {
	if m.Status != StatusPaused {
		return Match{}, transitionErr(m.Status, StatusActive)
	}
	updated := m
	updated.Status = StatusActive
	return updated, nil
}

// End moves the match to ENDED with a result tag. Any non-terminal status
// may end.
func (m Match) End(result string) (Match, error) {
	if m.Status == StatusEnded {
		return Match{}, transitionErr(m.Status, StatusEnded)
	}
	updated := m
	updated.Status = StatusEnded
	updated.Result = result
	updated.CurrentTurnID = ""
	return updated, nil
}

// AppendTurn records a new turn id and makes it current.
func (m Match) AppendTurn(turnID string) Match {
	updated := m
	updated.TurnIDs = append(append([]string(nil), m.TurnIDs...), turnID)
	updated.CurrentTurnID = turnID
	return updated
}

// WithGameState replaces the opaque narration state blob.
func (m Match) WithGameState(state map[string]any) Match {
	updated := m
	updated.GameState = state
	return updated
}

// InProgress reports whether the match is ACTIVE or PAUSED.
func (m Match) InProgress() bool {
	return m.Status == StatusActive || m.Status == StatusPaused
}

func transitionErr(from, to Status) error {
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
}
