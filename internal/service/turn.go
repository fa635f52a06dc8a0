package service

import (
	stderrors "errors"
	"fmt"
	"log"

	"github.com/fableroom/fableroom/internal/core/dice"
	"github.com/fableroom/fableroom/internal/domain/match"
	"github.com/fableroom/fableroom/internal/domain/turn"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/narration"
	"github.com/fableroom/fableroom/internal/platform/errors"
	"github.com/fableroom/fableroom/internal/state"
)

// TurnService drives the turn-transition state machine.
type TurnService struct {
	*core
}

// RecordPlayerAction records a player's narrated action on the current turn.
// In dice mode the server rolls a d20 against the turn's difficulty; a failed
// check costs the player health.
func (s *TurnService) RecordPlayerAction(playerID, text string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		m, ok := rs.CurrentMatch()
		if !ok {
			col.reject(CodeNoActiveMatch, "no match is active")
			return nil
		}
		if m.Status != match.StatusActive {
			col.reject(CodeMatchNotActive, "the match is not in progress")
			return nil
		}
		t, ok := rs.CurrentTurn()
		if !ok {
			col.reject(CodeTurnNotActive, "no turn is open")
			return nil
		}

		updated, err := t.RecordAction(playerID, text)
		if err != nil {
			rejectTurnError(col, err)
			return nil
		}
		t = updated
		rs.Turns[t.ID] = t

		p := rs.Players[playerID]
		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticePlayer,
			Sender:  playerID,
			Content: p.Name + ": " + text,
		})
		col.emit(event.Event{Type: event.TypePlayerAction, RoomID: roomID, ActorID: playerID, TurnID: t.ID})

		if t.RequiresDice() {
			if err := s.resolveDice(rs, &t, playerID, text, col); err != nil {
				return err
			}
		}

		return s.maybeCompleteTurn(rs, col)
	})
}

// resolveDice rolls for the player, records the result, and applies the
// failure cost. Called inside the room lock.
func (s *TurnService) resolveDice(rs *state.RoomState, t *turn.Turn, playerID, action string, col *collector) error {
	roll, err := s.roller.Roll(dice.DefaultSides)
	if err != nil {
		return err
	}
	success := dice.Check(roll, t.Difficulty)

	updated, err := t.RecordDiceResult(playerID, turn.DiceResult{
		Action:     action,
		Roll:       roll,
		Difficulty: t.Difficulty,
		Success:    success,
	})
	if err != nil {
		return err
	}
	*t = updated
	rs.Turns[t.ID] = updated

	p := rs.Players[playerID]
	verdict := "failure"
	if success {
		verdict = "success"
	}
	col.notify(Notification{
		RoomID:  rs.Room.ID,
		Kind:    NoticeSystem,
		Content: fmt.Sprintf("%s rolled %d against difficulty %d: %s.", p.Name, roll, t.Difficulty, verdict),
	})

	if !success && s.cfg.FailureDamage > 0 {
		s.applyHealthDelta(rs, playerID, -s.cfg.FailureDamage, col)
	}
	return nil
}

// RecordNarration applies a narration collaborator response to the current
// DM turn: it records the narration action, applies the structured updates,
// honors declared outcomes, and advances the turn machine.
func (s *TurnService) RecordNarration(roomID string, resp narration.Response) (Outcome, error) {
	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		m, ok := rs.CurrentMatch()
		if !ok {
			col.reject(CodeNoActiveMatch, "no match is active")
			return nil
		}
		if m.Status != match.StatusActive {
			col.reject(CodeMatchNotActive, "the match is not in progress")
			return nil
		}
		t, ok := rs.CurrentTurn()
		if !ok {
			col.reject(CodeTurnNotActive, "no turn is open")
			return nil
		}

		updated, err := t.RecordAction(turn.DMActorID, resp.Narration)
		if err != nil {
			rejectTurnError(col, err)
			return nil
		}
		t = updated
		rs.Turns[t.ID] = t

		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticeDM,
			Sender:  turn.DMActorID,
			Content: resp.Narration,
		})
		col.emit(event.Event{Type: event.TypeDMNarration, RoomID: roomID, TurnID: t.ID, MatchID: m.ID})

		s.applyLocationUpdates(rs, resp.LocationUpdates)
		for _, iu := range resp.ItemUpdates {
			s.applyItemUpdate(rs, iu, col)
		}
		for _, au := range resp.AttributeUpdates {
			s.applyAttributeUpdate(rs, au, col)
		}

		if len(rs.AlivePlayerIDs()) == 0 {
			return s.finishTurnAndMatch(rs, t, match.ResultLost, "The party has fallen. The match is lost.", col)
		}

		switch resp.MatchResult {
		case narration.ResultWon:
			if s.cfg.AllowDeclaredOutcome {
				return s.finishTurnAndMatch(rs, t, match.ResultWon, "Victory! The match is won.", col)
			}
			log.Printf("turn: ignoring declared WON outcome for room %s", roomID)
		case narration.ResultLost:
			if s.cfg.AllowDeclaredOutcome {
				return s.finishTurnAndMatch(rs, t, match.ResultLost, "Defeat. The match is lost.", col)
			}
			log.Printf("turn: ignoring declared LOST outcome for room %s", roomID)
		}

		t = t.WithNextTurn(nextTurnFromResponse(rs, resp))
		rs.Turns[t.ID] = t

		return s.maybeCompleteTurn(rs, col)
	})
}

// NarrationRequest builds the collaborator request for the current DM turn.
// The actions and dice results come from the most recently completed turn;
// the history is the trail of prior narrations.
func (s *TurnService) NarrationRequest(roomID string) (narration.Request, error) {
	var req narration.Request
	err := s.registry.WithRoom(roomID, func(rs *state.RoomState) error {
		m, ok := rs.CurrentMatch()
		if !ok {
			return errors.New(errors.CodeNotFound, "no active match for narration")
		}
		t, ok := rs.CurrentTurn()
		if !ok || t.Type != turn.TypeDM || t.Status != turn.StatusActive {
			return errors.New(errors.CodeNotFound, "no open DM turn for narration")
		}

		req.Scene = m.Scene
		req.GameState = copyGameState(m.GameState)
		req.Actions = map[string]string{}
		req.DiceResults = map[string]narration.DiceOutcome{}

		for _, id := range rs.Room.PlayerIDs {
			p, ok := rs.Players[id]
			if !ok {
				continue
			}
			req.Roster = append(req.Roster, narration.RosterEntry{
				PlayerID:   p.ID,
				Name:       p.Name,
				Alive:      p.Alive,
				Health:     p.Health,
				Attributes: p.Attributes,
				Items:      p.Items,
			})
		}

		if prev, ok := lastCompletedTurn(rs, m); ok {
			for actor, text := range prev.Actions {
				req.Actions[actor] = text
			}
			for playerID, dr := range prev.DiceResults {
				req.DiceResults[playerID] = narration.DiceOutcome{
					Action:     dr.Action,
					Roll:       dr.Roll,
					Difficulty: dr.Difficulty,
					Success:    dr.Success,
				}
			}
		}

		for _, turnID := range m.TurnIDs {
			prior, ok := rs.Turns[turnID]
			if !ok || prior.Type != turn.TypeDM || prior.Status != turn.StatusCompleted {
				continue
			}
			if text, ok := prior.Actions[turn.DMActorID]; ok {
				req.History = append(req.History, text)
			}
		}
		if len(req.History) > 10 {
			req.History = req.History[len(req.History)-10:]
		}
		return nil
	})
	return req, err
}

// turnSpec describes the turn to open next.
type turnSpec struct {
	turnType      turn.Type
	mode          string
	difficulty    int
	activePlayers []string
}

// openTurn creates, activates, and installs a new current turn. Called
// inside the room lock.
func (c *core) openTurn(rs *state.RoomState, spec turnSpec, col *collector) error {
	m, ok := rs.CurrentMatch()
	if !ok {
		return errors.New(errors.CodeRegistryCorrupt, "opening turn without an active match")
	}

	if spec.turnType == turn.TypePlayer && len(spec.activePlayers) == 0 {
		spec.activePlayers = rs.AlivePlayerIDs()
	}
	if spec.mode == "" {
		spec.mode = turn.ModeFree
	}

	t := turn.New(c.newID(), m.ID, spec.turnType, spec.mode, spec.difficulty, spec.activePlayers, c.now())
	t, err := t.Activate()
	if err != nil {
		return err
	}
	rs.Turns[t.ID] = t
	rs.Matches[m.ID] = m.AppendTurn(t.ID)

	col.emit(event.Event{
		Type:     event.TypeTurnStarted,
		RoomID:   rs.Room.ID,
		MatchID:  m.ID,
		TurnID:   t.ID,
		TurnType: string(t.Type),
	})
	if t.Type == turn.TypePlayer {
		content := "A new turn begins. Players, declare your actions."
		if t.RequiresDice() {
			content = fmt.Sprintf("A new turn begins. Actions require a roll against difficulty %d.", t.Difficulty)
		}
		col.notify(Notification{RoomID: rs.Room.ID, Kind: NoticeSystem, Content: content})
	}
	return nil
}

// maybeCompleteTurn checks the current turn for completion and, when it
// completes, opens the subsequent turn. Called inside the room lock.
func (c *core) maybeCompleteTurn(rs *state.RoomState, col *collector) error {
	t, ok := rs.CurrentTurn()
	if !ok || t.Status != turn.StatusActive || !t.ActionsComplete() {
		return nil
	}

	completed, err := t.Complete(c.now())
	if err != nil {
		return err
	}
	rs.Turns[completed.ID] = completed
	col.emit(event.Event{
		Type:     event.TypeTurnCompleted,
		RoomID:   rs.Room.ID,
		MatchID:  completed.MatchID,
		TurnID:   completed.ID,
		TurnType: string(completed.Type),
	})

	m, ok := rs.CurrentMatch()
	if !ok || m.Status != match.StatusActive {
		return nil
	}
	return c.openTurn(rs, nextTurnSpec(rs, completed), col)
}

// dropFromCurrentTurn removes a departed or dead player from the open
// turn's active set so they cannot hold it open. Called inside the room
// lock; the caller re-checks completion afterwards.
func (c *core) dropFromCurrentTurn(rs *state.RoomState, playerID string, col *collector) {
	t, ok := rs.CurrentTurn()
	if !ok || t.Status != turn.StatusActive || !t.IsActivePlayer(playerID) {
		return
	}
	rs.Turns[t.ID] = t.RemoveActivePlayer(playerID)
}

// nextTurnSpec derives the turn that follows a completed one: the recorded
// directive when present and valid, DM and PLAYER alternation otherwise.
func nextTurnSpec(rs *state.RoomState, completed turn.Turn) turnSpec {
	if info := completed.NextTurn; info != nil {
		spec := turnSpec{
			turnType:   info.TurnType,
			mode:       info.Mode,
			difficulty: info.Difficulty,
		}
		switch info.TurnType {
		case turn.TypeDM:
			return spec
		case turn.TypePlayer:
			spec.activePlayers = filterAlive(rs, info.ActivePlayers)
			if len(spec.activePlayers) == 0 {
				spec.activePlayers = rs.AlivePlayerIDs()
			}
			return spec
		}
	}

	if completed.Type == turn.TypeDM {
		return turnSpec{turnType: turn.TypePlayer, mode: turn.ModeFree, activePlayers: rs.AlivePlayerIDs()}
	}
	return turnSpec{turnType: turn.TypeDM, mode: turn.ModeFree}
}

// nextTurnFromResponse converts a narration response into the next-turn
// directive recorded on the DM turn.
func nextTurnFromResponse(rs *state.RoomState, resp narration.Response) turn.NextTurnInfo {
	info := turn.NextTurnInfo{
		TurnType:      turn.TypePlayer,
		ActivePlayers: rs.AlivePlayerIDs(),
		Mode:          turn.ModeFree,
	}
	if resp.NextTurn != nil {
		if resp.NextTurn.TurnType == string(turn.TypeDM) {
			info.TurnType = turn.TypeDM
			info.ActivePlayers = nil
		}
		if len(resp.NextTurn.ActivePlayers) > 0 && info.TurnType == turn.TypePlayer {
			info.ActivePlayers = filterAlive(rs, resp.NextTurn.ActivePlayers)
		}
	}
	if resp.NeedDiceRoll && info.TurnType == turn.TypePlayer {
		info.Mode = turn.ModeDice
		info.Difficulty = resp.Difficulty
	}
	return info
}

// finishTurnAndMatch completes the open turn and ends the match with the
// given result. Called inside the room lock.
func (c *core) finishTurnAndMatch(rs *state.RoomState, t turn.Turn, result, content string, col *collector) error {
	completed, err := t.Complete(c.now())
	if err != nil {
		return err
	}
	rs.Turns[completed.ID] = completed
	col.emit(event.Event{
		Type:     event.TypeTurnCompleted,
		RoomID:   rs.Room.ID,
		MatchID:  completed.MatchID,
		TurnID:   completed.ID,
		TurnType: string(completed.Type),
	})
	return c.endMatchLocked(rs, result, content, col)
}

// lastCompletedTurn returns the most recently completed turn of the match.
func lastCompletedTurn(rs *state.RoomState, m match.Match) (turn.Turn, bool) {
	for i := len(m.TurnIDs) - 1; i >= 0; i-- {
		t, ok := rs.Turns[m.TurnIDs[i]]
		if ok && t.Status == turn.StatusCompleted {
			return t, true
		}
	}
	return turn.Turn{}, false
}

// filterAlive keeps only ids that are living members of the room.
func filterAlive(rs *state.RoomState, ids []string) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := rs.Players[id]; ok && p.Alive && rs.Room.HasPlayer(id) {
			kept = append(kept, id)
		}
	}
	return kept
}

func copyGameState(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func rejectTurnError(col *collector, err error) {
	switch {
	case stderrors.Is(err, turn.ErrTurnNotActive):
		col.reject(CodeTurnNotActive, "the turn is not accepting actions")
	case stderrors.Is(err, turn.ErrInactivePlayer):
		col.reject(CodeInactivePlayer, "you are not expected to act this turn")
	case stderrors.Is(err, turn.ErrDuplicateAction):
		col.reject(CodeDuplicateAction, "you already acted this turn")
	case stderrors.Is(err, turn.ErrDiceNotRequired):
		col.reject(CodeDiceNotRequired, "this turn does not require a roll")
	default:
		col.reject(CodeTurnNotActive, "the turn rejected the action")
	}
}
