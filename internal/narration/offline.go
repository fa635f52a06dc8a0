package narration

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Offline is a deterministic collaborator for running without an API key.
// It alternates between plain continuations and dice checks so every turn
// path gets exercised.
type Offline struct {
	turns atomic.Int64
}

// NewOffline constructs an offline collaborator.
func NewOffline() *Offline {
	return &Offline{}
}

// Narrate implements Collaborator.
func (o *Offline) Narrate(_ context.Context, req Request) (Response, error) {
	n := o.turns.Add(1)

	alive := make([]string, 0, len(req.Roster))
	for _, entry := range req.Roster {
		if entry.Alive {
			alive = append(alive, entry.PlayerID)
		}
	}

	resp := Response{
		Narration:   fmt.Sprintf("The path ahead twists once more (chapter %d). What do you do?", n),
		MatchResult: ResultContinue,
		NextTurn: &NextTurn{
			TurnType:      "PLAYER",
			ActivePlayers: alive,
		},
	}
	if n%2 == 0 {
		resp.NeedDiceRoll = true
		resp.Difficulty = 10
		resp.ActionDesc = "Push through the obstacle"
	}
	return resp, nil
}
