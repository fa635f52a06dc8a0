// Package event provides the in-process publish/subscribe channel for
// domain events.
package event

// Type identifies a domain event.
type Type string

const (
	TypeRoomCreated     Type = "room.created"
	TypeRoomDeleted     Type = "room.deleted"
	TypePlayerJoined    Type = "player.joined"
	TypePlayerLeft      Type = "player.left"
	TypePlayerReady     Type = "player.ready"
	TypePlayerKicked    Type = "player.kicked"
	TypePlayerAction    Type = "player.action"
	TypePlayerDied      Type = "player.died"
	TypeHostTransferred Type = "host.transferred"
	TypeMatchStarted    Type = "match.started"
	TypeMatchPaused     Type = "match.paused"
	TypeMatchResumed    Type = "match.resumed"
	TypeMatchEnded      Type = "match.ended"
	TypeTurnStarted     Type = "turn.started"
	TypeTurnCompleted   Type = "turn.completed"
	TypeDMNarration     Type = "dm.narration"
)

// Event is one domain occurrence. Fields beyond Type and RoomID are set
// when they apply.
type Event struct {
	Type     Type
	RoomID   string
	ActorID  string
	MatchID  string
	TurnID   string
	TurnType string
}
