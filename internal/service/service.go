// Package service is the business-rule layer of the orchestration engine.
//
// Services orchestrate the entity packages, enforce the game rules, update
// the registry, publish domain events, and produce the human-readable
// notifications that adapters broadcast. Business failures are Rejection
// values inside an Outcome, never Go errors; Go errors are reserved for
// technical faults that abort the current command.
//
// Every service method acquires the room's serialization domain through the
// registry, so all state touched by one command for one room is mutated
// atomically with respect to other commands for that room. Events are
// published after the room lock is released.
package service

import (
	stderrors "errors"
	"time"

	"github.com/fableroom/fableroom/internal/core/dice"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/id"
	"github.com/fableroom/fableroom/internal/platform/errors"
	"github.com/fableroom/fableroom/internal/state"
)

// Notification kinds, matching the outbound "type" field.
const (
	NoticeSystem = "system"
	NoticeDM     = "dm"
	NoticePlayer = "player"
)

// Notification is one outbound message produced by a mutating call.
// An empty Recipient broadcasts to every room member.
type Notification struct {
	RoomID    string
	Kind      string
	Sender    string
	Recipient string
	Content   string
}

// Rejection codes for expected business failures.
const (
	CodeRoomFull            = "ROOM_FULL"
	CodeNotHost             = "NOT_HOST"
	CodePlayersNotReady     = "PLAYERS_NOT_READY"
	CodeInactivePlayer      = "INACTIVE_PLAYER"
	CodeTurnNotActive       = "TURN_NOT_ACTIVE"
	CodeMatchInProgress     = "MATCH_IN_PROGRESS"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeDuplicatePlayer     = "DUPLICATE_PLAYER"
	CodeUnknownCommand      = "UNKNOWN_COMMAND"
	CodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	CodeRoomNotFound        = "ROOM_NOT_FOUND"
	CodeNoActiveMatch       = "NO_ACTIVE_MATCH"
	CodeMatchNotActive      = "MATCH_NOT_ACTIVE"
	CodeDuplicateAction     = "DUPLICATE_ACTION"
	CodeDiceNotRequired     = "DICE_NOT_REQUIRED"
	CodeHostReadyNotAllowed = "HOST_READY_NOT_ALLOWED"
	CodeCannotKickHost      = "CANNOT_KICK_HOST"
	CodeNotInRoom           = "NOT_IN_ROOM"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
)

// Rejection is an expected business failure surfaced as a value.
type Rejection struct {
	Code    string
	Message string
}

// Outcome is the uniform result of a service call.
type Outcome struct {
	Rejection     *Rejection
	Payload       any
	Notifications []Notification
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Rejection == nil
}

// Config holds the tunables the services need.
type Config struct {
	DefaultMinPlayers    int
	DefaultMaxPlayers    int
	AllowDeclaredOutcome bool
	FailureDamage        int
}

// Set bundles the services sharing one registry and event bus.
type Set struct {
	Rooms      *RoomService
	Matches    *MatchService
	Turns      *TurnService
	Characters *CharacterService
	GameState  *GameStateService
}

// New wires the full service set.
func New(registry *state.Registry, bus *event.Bus, roller *dice.Roller, cfg Config) *Set {
	c := &core{
		registry: registry,
		bus:      bus,
		roller:   roller,
		cfg:      cfg,
		now:      time.Now,
		newID:    id.New,
	}
	return &Set{
		Rooms:      &RoomService{core: c},
		Matches:    &MatchService{core: c},
		Turns:      &TurnService{core: c},
		Characters: &CharacterService{core: c},
		GameState:  &GameStateService{core: c},
	}
}

// core holds the dependencies every service shares. now and newID are
// swappable for deterministic tests.
type core struct {
	registry *state.Registry
	bus      *event.Bus
	roller   *dice.Roller
	cfg      Config
	now      func() time.Time
	newID    func() string
}

// collector accumulates the notifications and events produced while the
// room lock is held. Events are published only after the lock is released.
type collector struct {
	out    Outcome
	events []event.Event
}

func (col *collector) notify(n Notification) {
	col.out.Notifications = append(col.out.Notifications, n)
}

func (col *collector) emit(e event.Event) {
	col.events = append(col.events, e)
}

func (col *collector) reject(code, message string) {
	col.out.Rejection = &Rejection{Code: code, Message: message}
}

// run executes fn inside the room's serialization domain and publishes the
// collected events afterwards. An unregistered room becomes a ROOM_NOT_FOUND
// rejection; any other error is a technical fault.
func (c *core) run(roomID string, fn func(rs *state.RoomState, col *collector) error) (Outcome, error) {
	col := &collector{}
	err := c.registry.WithRoom(roomID, func(rs *state.RoomState) error {
		return fn(rs, col)
	})
	if err != nil {
		var derr *errors.Error
		if stderrors.As(err, &derr) && derr.Code == errors.CodeRoomNotFound {
			return rejection(CodeRoomNotFound, "room not found: "+roomID), nil
		}
		return Outcome{}, err
	}
	c.publish(col.events)
	return col.out, nil
}

func (c *core) publish(events []event.Event) {
	for _, e := range events {
		c.bus.Publish(e)
	}
}

func rejection(code, message string) Outcome {
	return Outcome{Rejection: &Rejection{Code: code, Message: message}}
}
