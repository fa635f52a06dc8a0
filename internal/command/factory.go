package command

import (
	"github.com/fableroom/fableroom/internal/adapter"
	"github.com/fableroom/fableroom/internal/narration"
	"github.com/fableroom/fableroom/internal/service"
)

// builder validates an inbound request and constructs the matching command.
type builder func(in adapter.Inbound) (Command, *service.Rejection)

// Factory maps inbound kinds to command constructors. An unrecognized kind
// is rejected with UNKNOWN_COMMAND, never silently dropped.
type Factory struct {
	builders map[Kind]builder
}

// NewFactory registers every built-in command.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[Kind]builder)}

	f.register(KindCreateRoom, func(in adapter.Inbound) (Command, *service.Rejection) {
		name := stringField(in.Payload, "name")
		if name == "" {
			return nil, invalid("room name is required")
		}
		return createRoom{
			actorID:    in.ActorID,
			actorName:  in.ActorName,
			name:       name,
			minPlayers: intField(in.Payload, "min_players"),
			maxPlayers: intField(in.Payload, "max_players"),
		}, nil
	})

	f.register(KindJoinRoom, func(in adapter.Inbound) (Command, *service.Rejection) {
		if in.RoomID == "" {
			return nil, invalid("room id is required")
		}
		return joinRoom{roomID: in.RoomID, actorID: in.ActorID, actorName: in.ActorName}, nil
	})

	f.register(KindLeaveRoom, func(in adapter.Inbound) (Command, *service.Rejection) {
		return leaveRoom{actorID: in.ActorID}, nil
	})

	f.register(KindSetReady, func(in adapter.Inbound) (Command, *service.Rejection) {
		return setReady{actorID: in.ActorID, ready: boolField(in.Payload, "ready")}, nil
	})

	f.register(KindKickPlayer, func(in adapter.Inbound) (Command, *service.Rejection) {
		target := stringField(in.Payload, "target_id")
		if target == "" {
			return nil, invalid("target player id is required")
		}
		return kickPlayer{actorID: in.ActorID, targetID: target}, nil
	})

	f.register(KindStartMatch, func(in adapter.Inbound) (Command, *service.Rejection) {
		scene := stringField(in.Payload, "scene")
		if scene == "" {
			return nil, invalid("scene is required")
		}
		return startMatch{
			actorID:     in.ActorID,
			scene:       scene,
			scenarioRef: stringField(in.Payload, "scenario_ref"),
		}, nil
	})

	f.register(KindPauseMatch, func(in adapter.Inbound) (Command, *service.Rejection) {
		return pauseMatch{actorID: in.ActorID}, nil
	})

	f.register(KindResumeMatch, func(in adapter.Inbound) (Command, *service.Rejection) {
		return resumeMatch{actorID: in.ActorID}, nil
	})

	f.register(KindEndMatch, func(in adapter.Inbound) (Command, *service.Rejection) {
		return endMatch{actorID: in.ActorID}, nil
	})

	f.register(KindPlayerAction, func(in adapter.Inbound) (Command, *service.Rejection) {
		text := stringField(in.Payload, "text")
		if text == "" {
			return nil, invalid("action text is required")
		}
		return playerAction{actorID: in.ActorID, text: text}, nil
	})

	f.register(KindDMNarration, func(in adapter.Inbound) (Command, *service.Rejection) {
		if in.RoomID == "" {
			return nil, invalid("room id is required")
		}
		resp, ok := in.Payload["response"].(narration.Response)
		if !ok {
			return nil, invalid("narration response is required")
		}
		return dmNarration{roomID: in.RoomID, response: resp}, nil
	})

	f.register(KindListRooms, func(in adapter.Inbound) (Command, *service.Rejection) {
		return listRooms{}, nil
	})

	f.register(KindRoomState, func(in adapter.Inbound) (Command, *service.Rejection) {
		if in.RoomID == "" {
			return nil, invalid("room id is required")
		}
		return roomState{roomID: in.RoomID, actorID: in.ActorID}, nil
	})

	return f
}

func (f *Factory) register(kind Kind, b builder) {
	f.builders[kind] = b
}

// Resolve constructs the command for an inbound request.
func (f *Factory) Resolve(in adapter.Inbound) (Command, *service.Rejection) {
	b, ok := f.builders[Kind(in.Kind)]
	if !ok {
		return nil, &service.Rejection{
			Code:    service.CodeUnknownCommand,
			Message: "unknown command kind: " + in.Kind,
		}
	}
	return b(in)
}

func invalid(message string) *service.Rejection {
	return &service.Rejection{Code: service.CodeInvalidPayload, Message: message}
}
