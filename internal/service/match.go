package service

import (
	"github.com/fableroom/fableroom/internal/domain/match"
	"github.com/fableroom/fableroom/internal/domain/turn"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/state"
)

// MatchService manages the match lifecycle within a room.
type MatchService struct {
	*core
}

// StartMatch opens a match and its first DM turn. Only the host may start,
// and only when the room has a single player or every non-host player is
// ready.
func (s *MatchService) StartMatch(actorID, scene, scenarioRef string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(actorID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if !rs.Room.IsHost(actorID) {
			col.reject(CodeNotHost, "only the host may start a match")
			return nil
		}
		if m, ok := rs.CurrentMatch(); ok && m.InProgress() {
			col.reject(CodeMatchInProgress, "a match is already in progress")
			return nil
		}
		if !allNonHostReady(rs) {
			col.reject(CodePlayersNotReady, "all players must be ready")
			return nil
		}

		now := s.now()
		m := match.New(s.newID(), roomID, scene, now)
		m, err := m.Start()
		if err != nil {
			return err
		}
		if scenarioRef != "" {
			m = m.WithGameState(map[string]any{"scenario_ref": scenarioRef})
		}
		rs.Matches[m.ID] = m
		rs.Room = rs.Room.WithCurrentMatch(m.ID)

		for _, playerID := range rs.Room.PlayerIDs {
			if _, err := s.ensureCharacter(rs, playerID); err != nil {
				return err
			}
		}

		col.out.Payload = map[string]string{"match_id": m.ID}
		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticeSystem,
			Content: "The match begins: " + scene,
		})
		col.emit(event.Event{Type: event.TypeMatchStarted, RoomID: roomID, MatchID: m.ID, ActorID: actorID})

		return s.openTurn(rs, turnSpec{turnType: turn.TypeDM, mode: turn.ModeFree}, col)
	})
}

// PauseMatch pauses the active match. Host only.
func (s *MatchService) PauseMatch(actorID string) (Outcome, error) {
	return s.transition(actorID, event.TypeMatchPaused, "The match is paused.", func(m match.Match) (match.Match, error) {
		return m.Pause()
	})
}

// ResumeMatch resumes a paused match. Host only. If the pause interrupted an
// open DM turn before its narration landed, the turn.started event is
// re-published so the narration flow runs again.
func (s *MatchService) ResumeMatch(actorID string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(actorID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if !rs.Room.IsHost(actorID) {
			col.reject(CodeNotHost, "only the host may change the match state")
			return nil
		}
		m, ok := rs.CurrentMatch()
		if !ok {
			col.reject(CodeNoActiveMatch, "no match is active")
			return nil
		}
		updated, err := m.Resume()
		if err != nil {
			col.reject(CodeMatchNotActive, "the match cannot change to that state")
			return nil
		}
		rs.Matches[updated.ID] = updated
		col.notify(Notification{RoomID: roomID, Kind: NoticeSystem, Content: "The match resumes."})
		col.emit(event.Event{Type: event.TypeMatchResumed, RoomID: roomID, MatchID: updated.ID, ActorID: actorID})

		// A narration produced while the match was paused was rejected and
		// discarded, so an unnarrated DM turn would otherwise stay open
		// forever.
		if t, ok := rs.CurrentTurn(); ok && t.Type == turn.TypeDM && t.Status == turn.StatusActive {
			if _, acted := t.Actions[turn.DMActorID]; !acted {
				col.emit(event.Event{
					Type:     event.TypeTurnStarted,
					RoomID:   roomID,
					MatchID:  updated.ID,
					TurnID:   t.ID,
					TurnType: string(t.Type),
				})
			}
		}
		return nil
	})
}

// EndMatch ends the active match with an abandoned result. Host only.
func (s *MatchService) EndMatch(actorID string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(actorID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if !rs.Room.IsHost(actorID) {
			col.reject(CodeNotHost, "only the host may end the match")
			return nil
		}
		m, ok := rs.CurrentMatch()
		if !ok {
			col.reject(CodeNoActiveMatch, "no match is active")
			return nil
		}
		if !m.InProgress() {
			col.reject(CodeMatchNotActive, "the match is not in progress")
			return nil
		}
		return s.endMatchLocked(rs, match.ResultAbandoned, "The match has ended.", col)
	})
}

func (s *MatchService) transition(actorID string, eventType event.Type, content string, step func(match.Match) (match.Match, error)) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(actorID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if !rs.Room.IsHost(actorID) {
			col.reject(CodeNotHost, "only the host may change the match state")
			return nil
		}
		m, ok := rs.CurrentMatch()
		if !ok {
			col.reject(CodeNoActiveMatch, "no match is active")
			return nil
		}
		updated, err := step(m)
		if err != nil {
			col.reject(CodeMatchNotActive, "the match cannot change to that state")
			return nil
		}
		rs.Matches[updated.ID] = updated
		col.notify(Notification{RoomID: roomID, Kind: NoticeSystem, Content: content})
		col.emit(event.Event{Type: eventType, RoomID: roomID, MatchID: updated.ID, ActorID: actorID})
		return nil
	})
}

// endMatchLocked ends the current match inside the room lock, recording the
// result and clearing the room's match reference.
func (c *core) endMatchLocked(rs *state.RoomState, result, content string, col *collector) error {
	m, ok := rs.CurrentMatch()
	if !ok {
		return nil
	}
	ended, err := m.End(result)
	if err != nil {
		return err
	}
	rs.Matches[ended.ID] = ended
	rs.Room = rs.Room.ClearCurrentMatch()

	col.notify(Notification{RoomID: rs.Room.ID, Kind: NoticeSystem, Content: content})
	col.emit(event.Event{Type: event.TypeMatchEnded, RoomID: rs.Room.ID, MatchID: ended.ID})
	return nil
}

// applyLocationUpdates merges narration location changes into the match's
// opaque game state. Called inside the room lock.
func (c *core) applyLocationUpdates(rs *state.RoomState, updates map[string]string) {
	if len(updates) == 0 {
		return
	}
	m, ok := rs.CurrentMatch()
	if !ok {
		return
	}
	gs := make(map[string]any, len(m.GameState)+len(updates))
	for k, v := range m.GameState {
		gs[k] = v
	}
	for k, v := range updates {
		gs[k] = v
	}
	rs.Matches[m.ID] = m.WithGameState(gs)
}

// allNonHostReady reports whether the match may start: a single-player room
// or every non-host player flagged ready.
func allNonHostReady(rs *state.RoomState) bool {
	if len(rs.Room.PlayerIDs) == 1 {
		return true
	}
	for _, id := range rs.Room.PlayerIDs {
		if rs.Room.IsHost(id) {
			continue
		}
		if p, ok := rs.Players[id]; !ok || !p.Ready {
			return false
		}
	}
	return true
}
