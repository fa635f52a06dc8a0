package command

import (
	"github.com/fableroom/fableroom/internal/narration"
	"github.com/fableroom/fableroom/internal/service"
)

type createRoom struct {
	actorID    string
	actorName  string
	name       string
	minPlayers int
	maxPlayers int
}

func (c createRoom) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Rooms.CreateRoom(c.name, c.actorID, c.actorName, c.minPlayers, c.maxPlayers)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type joinRoom struct {
	roomID    string
	actorID   string
	actorName string
}

func (c joinRoom) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Rooms.JoinRoom(c.roomID, c.actorID, c.actorName)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome(c.roomID, c.actorID, out), nil
}

type leaveRoom struct {
	actorID string
}

func (c leaveRoom) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Rooms.LeaveRoom(c.actorID)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type setReady struct {
	actorID string
	ready   bool
}

func (c setReady) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Rooms.SetReady(c.actorID, c.ready)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type kickPlayer struct {
	actorID  string
	targetID string
}

func (c kickPlayer) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Rooms.KickPlayer(c.actorID, c.targetID)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type startMatch struct {
	actorID     string
	scene       string
	scenarioRef string
}

func (c startMatch) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Matches.StartMatch(c.actorID, c.scene, c.scenarioRef)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type pauseMatch struct {
	actorID string
}

func (c pauseMatch) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Matches.PauseMatch(c.actorID)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type resumeMatch struct {
	actorID string
}

func (c resumeMatch) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Matches.ResumeMatch(c.actorID)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type endMatch struct {
	actorID string
}

func (c endMatch) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Matches.EndMatch(c.actorID)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type playerAction struct {
	actorID string
	text    string
}

func (c playerAction) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Turns.RecordPlayerAction(c.actorID, c.text)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", c.actorID, out), nil
}

type dmNarration struct {
	roomID   string
	response narration.Response
}

func (c dmNarration) Execute(svc *service.Set) (Result, error) {
	out, err := svc.Turns.RecordNarration(c.roomID, c.response)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome(c.roomID, "", out), nil
}

type listRooms struct{}

func (c listRooms) Execute(svc *service.Set) (Result, error) {
	out, err := svc.GameState.ListRooms()
	if err != nil {
		return Result{}, err
	}
	return fromOutcome("", "", out), nil
}

type roomState struct {
	roomID  string
	actorID string
}

func (c roomState) Execute(svc *service.Set) (Result, error) {
	out, err := svc.GameState.Snapshot(c.roomID)
	if err != nil {
		return Result{}, err
	}
	return fromOutcome(c.roomID, c.actorID, out), nil
}
