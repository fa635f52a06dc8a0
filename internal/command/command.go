// Package command models every externally triggered operation as a command
// object resolved from an inbound request by the factory.
package command

import (
	"github.com/fableroom/fableroom/internal/service"
)

// Kind identifies an inbound command.
type Kind string

const (
	KindCreateRoom   Kind = "create_room"
	KindJoinRoom     Kind = "join_room"
	KindLeaveRoom    Kind = "leave_room"
	KindSetReady     Kind = "set_ready"
	KindKickPlayer   Kind = "kick_player"
	KindStartMatch   Kind = "start_match"
	KindPauseMatch   Kind = "pause_match"
	KindResumeMatch  Kind = "resume_match"
	KindEndMatch     Kind = "end_match"
	KindPlayerAction Kind = "player_action"
	KindDMNarration  Kind = "dm_narration"
	KindListRooms    Kind = "list_rooms"
	KindRoomState    Kind = "room_state"
)

// Result is the uniform command result.
type Result struct {
	OK            bool
	Payload       any
	Notifications []service.Notification
}

// Command executes one validated use case against the services.
type Command interface {
	Execute(svc *service.Set) (Result, error)
}

// fromOutcome converts a service outcome into a command result. A rejected
// command always yields a direct notification explaining the reason to the
// acting player; it never silently no-ops.
func fromOutcome(roomID, actorID string, out service.Outcome) Result {
	res := Result{
		OK:            out.OK(),
		Payload:       out.Payload,
		Notifications: out.Notifications,
	}
	if !out.OK() {
		res.Payload = out.Rejection
		res.Notifications = append(res.Notifications, service.Notification{
			RoomID:    roomID,
			Kind:      service.NoticeSystem,
			Recipient: actorID,
			Content:   out.Rejection.Message,
		})
	}
	return res
}

// stringField reads an optional string from a decoded payload.
func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// intField reads an optional number from a decoded payload. JSON numbers
// decode as float64.
func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// boolField reads an optional bool from a decoded payload.
func boolField(payload map[string]any, key string) bool {
	v, _ := payload[key].(bool)
	return v
}
