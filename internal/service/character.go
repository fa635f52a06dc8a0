package service

import (
	"fmt"

	"github.com/fableroom/fableroom/internal/domain/character"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/narration"
	"github.com/fableroom/fableroom/internal/platform/errors"
	"github.com/fableroom/fableroom/internal/state"
)

// CharacterService manages the per-match character sheets and the health
// and attribute updates flowing out of narration responses.
type CharacterService struct {
	*core
}

// EnsureCharacter creates the player's character for the current match on
// first access and returns it.
func (s *CharacterService) EnsureCharacter(playerID string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if _, ok := rs.Players[playerID]; !ok {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}
		if _, ok := rs.CurrentMatch(); !ok {
			col.reject(CodeNoActiveMatch, "no match is active")
			return nil
		}
		ch, err := s.ensureCharacter(rs, playerID)
		if err != nil {
			return err
		}
		col.out.Payload = ch
		return nil
	})
}

// ApplyAttributeDelta adjusts a named attribute on a player's character.
// The attribute "health" routes through the health path and can kill.
func (s *CharacterService) ApplyAttributeDelta(playerID, name string, delta int) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if _, ok := rs.Players[playerID]; !ok {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}
		s.applyAttributeUpdate(rs, narration.AttributeUpdate{PlayerID: playerID, Name: name, Delta: delta}, col)
		return nil
	})
}

// ensureCharacter creates the character for the current match on first
// access. Called inside the room lock.
func (c *core) ensureCharacter(rs *state.RoomState, playerID string) (character.Character, error) {
	m, ok := rs.CurrentMatch()
	if !ok {
		return character.Character{}, errors.New(errors.CodeRegistryCorrupt, "character access without an active match")
	}
	if ch, ok := rs.Characters[playerID]; ok && ch.MatchID == m.ID {
		return ch, nil
	}
	p, ok := rs.Players[playerID]
	if !ok {
		return character.Character{}, errors.New(errors.CodeRegistryCorrupt, "character access for unknown player "+playerID)
	}
	ch := character.New(c.newID(), playerID, m.ID, p.Health)
	rs.Characters[playerID] = ch
	c.registry.MapPlayerToCharacter(playerID, ch.ID)
	return ch, nil
}

// applyAttributeUpdate applies one narration attribute update. Called
// inside the room lock. Updates for unknown players are dropped.
func (c *core) applyAttributeUpdate(rs *state.RoomState, au narration.AttributeUpdate, col *collector) {
	p, ok := rs.Players[au.PlayerID]
	if !ok {
		return
	}
	if au.Name == "health" {
		c.applyHealthDelta(rs, au.PlayerID, au.Delta, col)
		return
	}

	value := p.Attributes[au.Name] + au.Delta
	rs.Players[au.PlayerID] = p.WithAttribute(au.Name, value)
	if ch, ok := rs.Characters[au.PlayerID]; ok {
		rs.Characters[au.PlayerID] = ch.WithAttribute(au.Name, value)
	}
}

// applyHealthDelta adjusts a player's health, mirroring the change onto the
// character sheet, and handles death. Called inside the room lock.
func (c *core) applyHealthDelta(rs *state.RoomState, playerID string, delta int, col *collector) {
	p, ok := rs.Players[playerID]
	if !ok {
		return
	}
	if !p.Alive {
		// A positive delta on a fallen player brings them back at full
		// health; anything else leaves the dead alone.
		if delta <= 0 {
			return
		}
		p = p.Revive()
		rs.Players[playerID] = p
		if ch, ok := rs.Characters[playerID]; ok {
			rs.Characters[playerID] = ch.ApplyHealthDelta(p.Health - ch.Health)
		}
		col.notify(Notification{
			RoomID:  rs.Room.ID,
			Kind:    NoticeSystem,
			Content: p.Name + " has been revived.",
		})
		return
	}
	p = p.ApplyHealthDelta(delta)
	rs.Players[playerID] = p
	if ch, ok := rs.Characters[playerID]; ok {
		rs.Characters[playerID] = ch.ApplyHealthDelta(delta)
	}

	if delta < 0 {
		col.notify(Notification{
			RoomID:  rs.Room.ID,
			Kind:    NoticeSystem,
			Content: fmt.Sprintf("%s takes %d damage (%d health remaining).", p.Name, -delta, p.Health),
		})
	} else if delta > 0 {
		col.notify(Notification{
			RoomID:  rs.Room.ID,
			Kind:    NoticeSystem,
			Content: fmt.Sprintf("%s recovers %d health (%d total).", p.Name, delta, p.Health),
		})
	}

	if !p.Alive {
		col.notify(Notification{
			RoomID:  rs.Room.ID,
			Kind:    NoticeSystem,
			Content: p.Name + " has fallen.",
		})
		col.emit(event.Event{Type: event.TypePlayerDied, RoomID: rs.Room.ID, ActorID: playerID})
		c.dropFromCurrentTurn(rs, playerID, col)
	}
}

// applyItemUpdate applies one narration item update. Called inside the
// room lock. Updates for unknown players are dropped.
func (c *core) applyItemUpdate(rs *state.RoomState, iu narration.ItemUpdate, col *collector) {
	p, ok := rs.Players[iu.PlayerID]
	if !ok || iu.Item == "" {
		return
	}
	switch iu.Op {
	case narration.ItemOpAdd:
		rs.Players[iu.PlayerID] = p.AddItem(iu.Item)
		col.notify(Notification{
			RoomID:  rs.Room.ID,
			Kind:    NoticeSystem,
			Content: p.Name + " obtained " + iu.Item + ".",
		})
	case narration.ItemOpRemove:
		rs.Players[iu.PlayerID] = p.RemoveItem(iu.Item)
		col.notify(Notification{
			RoomID:  rs.Room.ID,
			Kind:    NoticeSystem,
			Content: p.Name + " lost " + iu.Item + ".",
		})
	}
}
