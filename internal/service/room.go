package service

import (
	stderrors "errors"

	"github.com/fableroom/fableroom/internal/domain/player"
	"github.com/fableroom/fableroom/internal/domain/room"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/state"
)

// RoomService manages the room lifecycle and membership.
type RoomService struct {
	*core
}

// CreateRoom creates a room with the caller as host and first player.
// Zero bounds fall back to the configured defaults.
func (s *RoomService) CreateRoom(name, hostID, hostName string, minPlayers, maxPlayers int) (Outcome, error) {
	if name == "" {
		return rejection(CodeInvalidPayload, "room name is required"), nil
	}
	if _, ok := s.registry.RoomForPlayer(hostID); ok {
		return rejection(CodeDuplicatePlayer, "already in a room"), nil
	}
	if minPlayers <= 0 {
		minPlayers = s.cfg.DefaultMinPlayers
	}
	if maxPlayers <= 0 {
		maxPlayers = s.cfg.DefaultMaxPlayers
	}

	now := s.now()
	r, err := room.New(s.newID(), name, hostID, room.Settings{MinPlayers: minPlayers, MaxPlayers: maxPlayers}, now)
	if err != nil {
		if stderrors.Is(err, room.ErrInvalidSettings) {
			return rejection(CodeCapacityExceeded, "player bounds are not satisfiable"), nil
		}
		return Outcome{}, err
	}

	rs := state.NewRoomState(r)
	rs.Players[hostID] = player.New(hostID, hostName, now)
	out := Outcome{Payload: rs.Snapshot()}

	// The index claim is the atomic membership authority; the check above is
	// only a fast path.
	if !s.registry.TryMapPlayerToRoom(hostID, r.ID) {
		return rejection(CodeDuplicatePlayer, "already in a room"), nil
	}
	if err := s.registry.Register(rs); err != nil {
		s.registry.UnmapPlayer(hostID)
		return Outcome{}, err
	}
	out.Notifications = append(out.Notifications, Notification{
		RoomID:  r.ID,
		Kind:    NoticeSystem,
		Content: hostName + " created room " + name + ".",
	})
	s.publish([]event.Event{
		{Type: event.TypeRoomCreated, RoomID: r.ID, ActorID: hostID},
		{Type: event.TypePlayerJoined, RoomID: r.ID, ActorID: hostID},
	})
	return out, nil
}

// JoinRoom adds a player to an existing room. Joining mid-match is rejected.
func (s *RoomService) JoinRoom(roomID, playerID, playerName string) (Outcome, error) {
	if _, ok := s.registry.RoomForPlayer(playerID); ok {
		return rejection(CodeDuplicatePlayer, "already in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if m, ok := rs.CurrentMatch(); ok && m.InProgress() {
			col.reject(CodeMatchInProgress, "cannot join while a match is in progress")
			return nil
		}

		updated, err := rs.Room.AddPlayer(playerID)
		if err != nil {
			switch {
			case stderrors.Is(err, room.ErrDuplicatePlayer):
				col.reject(CodeDuplicatePlayer, "already in this room")
			case stderrors.Is(err, room.ErrCapacityExceeded):
				col.reject(CodeRoomFull, "room is full")
			default:
				return err
			}
			return nil
		}

		// Claim the index before committing the membership: a concurrent
		// join into another room must not also commit.
		if !s.registry.TryMapPlayerToRoom(playerID, roomID) {
			col.reject(CodeDuplicatePlayer, "already in a room")
			return nil
		}
		rs.Room = updated
		rs.Players[playerID] = player.New(playerID, playerName, s.now()).WithRoom(roomID)

		col.out.Payload = rs.Snapshot()
		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticeSystem,
			Content: playerName + " joined the room.",
		})
		col.emit(event.Event{Type: event.TypePlayerJoined, RoomID: roomID, ActorID: playerID})
		return nil
	})
}

// LeaveRoom removes a player from their room, transferring the host role to
// the longest-tenured remaining player and deleting the room when the last
// player leaves.
func (s *RoomService) LeaveRoom(playerID string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		p, ok := rs.Players[playerID]
		if !ok {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}
		wasHost := rs.Room.IsHost(playerID)

		updated, err := rs.Room.RemovePlayer(playerID)
		if err != nil {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}
		rs.Room = updated
		delete(rs.Players, playerID)
		delete(rs.Characters, playerID)
		s.registry.UnmapPlayer(playerID)

		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticeSystem,
			Content: p.Name + " left the room.",
		})
		col.emit(event.Event{Type: event.TypePlayerLeft, RoomID: roomID, ActorID: playerID})

		if rs.Room.Empty() {
			s.registry.Unregister(roomID)
			col.emit(event.Event{Type: event.TypeRoomDeleted, RoomID: roomID})
			return nil
		}

		if wasHost {
			newHost := rs.Room.PlayerIDs[0]
			rs.Room, err = rs.Room.WithHost(newHost)
			if err != nil {
				return err
			}
			col.notify(Notification{
				RoomID:  roomID,
				Kind:    NoticeSystem,
				Content: rs.Players[newHost].Name + " is now the host.",
			})
			col.emit(event.Event{Type: event.TypeHostTransferred, RoomID: roomID, ActorID: newHost})
		}

		s.dropFromCurrentTurn(rs, playerID, col)
		return s.maybeCompleteTurn(rs, col)
	})
}

// SetReady sets a player's readiness flag. The host is always considered
// ready and may not set the flag. Repeating the current value acknowledges
// the caller directly without a broadcast.
func (s *RoomService) SetReady(playerID string, ready bool) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(playerID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		p, ok := rs.Players[playerID]
		if !ok {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}
		if rs.Room.IsHost(playerID) {
			col.reject(CodeHostReadyNotAllowed, "the host does not set readiness")
			return nil
		}

		if p.Ready == ready {
			content := "You are already not ready."
			if ready {
				content = "You are already ready."
			}
			col.notify(Notification{
				RoomID:    roomID,
				Kind:      NoticeSystem,
				Recipient: playerID,
				Content:   content,
			})
			return nil
		}

		rs.Players[playerID] = p.WithReady(ready)
		content := p.Name + " is no longer ready."
		if ready {
			content = p.Name + " is ready."
		}
		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticeSystem,
			Content: content,
		})
		col.emit(event.Event{Type: event.TypePlayerReady, RoomID: roomID, ActorID: playerID})
		return nil
	})
}

// KickPlayer removes another player from the room. Only the host may kick.
func (s *RoomService) KickPlayer(hostID, targetID string) (Outcome, error) {
	roomID, ok := s.registry.RoomForPlayer(hostID)
	if !ok {
		return rejection(CodeNotInRoom, "not in a room"), nil
	}

	return s.run(roomID, func(rs *state.RoomState, col *collector) error {
		if !rs.Room.IsHost(hostID) {
			col.reject(CodeNotHost, "only the host may kick players")
			return nil
		}
		if targetID == hostID {
			col.reject(CodeCannotKickHost, "the host cannot kick themselves")
			return nil
		}
		target, ok := rs.Players[targetID]
		if !ok {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}

		updated, err := rs.Room.RemovePlayer(targetID)
		if err != nil {
			col.reject(CodePlayerNotFound, "player not in room")
			return nil
		}
		rs.Room = updated
		delete(rs.Players, targetID)
		delete(rs.Characters, targetID)
		s.registry.UnmapPlayer(targetID)

		col.notify(Notification{
			RoomID:  roomID,
			Kind:    NoticeSystem,
			Content: target.Name + " was kicked from the room.",
		})
		col.emit(event.Event{Type: event.TypePlayerKicked, RoomID: roomID, ActorID: targetID})

		s.dropFromCurrentTurn(rs, targetID, col)
		return s.maybeCompleteTurn(rs, col)
	})
}
