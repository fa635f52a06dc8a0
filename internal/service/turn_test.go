package service

import (
	"testing"

	"github.com/fableroom/fableroom/internal/domain/player"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/narration"
)

func narrate(t *testing.T, s *Set, roomID, text string) {
	t.Helper()
	out, err := s.Turns.RecordNarration(roomID, narration.Response{Narration: text})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}
}

func act(t *testing.T, s *Set, playerID, text string) {
	t.Helper()
	out, err := s.Turns.RecordPlayerAction(playerID, text)
	if err != nil {
		t.Fatalf("RecordPlayerAction(%s) error = %v", playerID, err)
	}
	if !out.OK() {
		t.Fatalf("RecordPlayerAction(%s) rejected: %+v", playerID, out.Rejection)
	}
}

// setupMatch creates a three-player room mid-match sitting on the opening
// DM turn.
func setupMatch(t *testing.T, s *Set) string {
	t.Helper()
	roomID := createRoom(t, s, "host", "Hope", 4)
	join(t, s, roomID, "p1", "Ada")
	join(t, s, roomID, "p2", "Brin")
	ready(t, s, "p1")
	ready(t, s, "p2")
	startMatch(t, s, "host")
	return roomID
}

func TestEndToEnd_DefaultAlternation(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	tn := currentTurn(t, s, roomID)
	if tn.TurnType != "DM" || tn.Status != "ACTIVE" {
		t.Fatalf("opening turn = %s/%s, want active DM", tn.TurnType, tn.Status)
	}

	narrate(t, s, roomID, "the gates creak open")

	tn = currentTurn(t, s, roomID)
	if tn.TurnType != "PLAYER" || tn.Status != "ACTIVE" {
		t.Fatalf("second turn = %s/%s, want active PLAYER", tn.TurnType, tn.Status)
	}
	if len(tn.ActivePlayers) != 3 {
		t.Fatalf("active players = %v, want all three members", tn.ActivePlayers)
	}

	act(t, s, "host", "raises the torch")
	act(t, s, "p1", "searches the rubble")

	// Turn must stay open until every active player acted.
	mid := currentTurn(t, s, roomID)
	if mid.Status != "ACTIVE" || mid.ID != tn.ID {
		t.Fatalf("turn = %s/%s, want the player turn still open", mid.ID, mid.Status)
	}

	act(t, s, "p2", "listens at the wall")

	next := currentTurn(t, s, roomID)
	if next.ID == tn.ID {
		t.Fatal("expected a new turn after all players acted")
	}
	if next.TurnType != "DM" {
		t.Fatalf("next turn = %s, want DM by default alternation", next.TurnType)
	}
}

func TestRecordPlayerAction_OutsiderRejected(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	narrate(t, s, roomID, "the gates creak open")

	before := currentTurn(t, s, roomID)

	// The DM sentinel is not in the player turn's active set.
	out, err := s.Turns.RecordNarration(roomID, narration.Response{Narration: "barging in"})
	if got := rejectionCode(t, out, err); got != CodeInactivePlayer {
		t.Fatalf("code = %s, want %s", got, CodeInactivePlayer)
	}

	after := currentTurn(t, s, roomID)
	if len(after.Actions) != len(before.Actions) {
		t.Fatal("expected rejected action to leave the turn unchanged")
	}
}

func TestRecordPlayerAction_DuplicateRejected(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	narrate(t, s, roomID, "the gates creak open")

	act(t, s, "p1", "first")
	out, err := s.Turns.RecordPlayerAction("p1", "second")
	if got := rejectionCode(t, out, err); got != CodeDuplicateAction {
		t.Fatalf("code = %s, want %s", got, CodeDuplicateAction)
	}
}

func TestRecordPlayerAction_NoMatchRejected(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	createRoom(t, s, "host", "Hope", 4)

	out, err := s.Turns.RecordPlayerAction("host", "swing")
	if got := rejectionCode(t, out, err); got != CodeNoActiveMatch {
		t.Fatalf("code = %s, want %s", got, CodeNoActiveMatch)
	}
}

func TestNarration_DiceDirectiveAlwaysFails(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	// Difficulty 21 cannot be met on a d20, so every check fails and the
	// failure cost applies.
	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration:    "a chasm blocks the way",
		NeedDiceRoll: true,
		Difficulty:   21,
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	tn := currentTurn(t, s, roomID)
	if tn.TurnMode != "dice" || tn.Difficulty != 21 {
		t.Fatalf("turn = %s/%d, want dice mode at difficulty 21", tn.TurnMode, tn.Difficulty)
	}

	act(t, s, "p1", "leaps the chasm")

	rs := snap(t, s, roomID)
	p1 := findPlayer(t, rs, "p1")
	if p1.Health != 90 {
		t.Fatalf("p1 health = %d, want 90 after failed check", p1.Health)
	}

	tn = currentTurn(t, s, roomID)
	dr, ok := tn.DiceResults["p1"]
	if !ok {
		t.Fatal("expected dice result recorded for p1")
	}
	if dr.Success {
		t.Fatalf("dice result = %+v, want failure against difficulty 21", dr)
	}
	if dr.Success != (dr.Roll >= dr.Difficulty) {
		t.Fatalf("dice result %+v drifted from roll >= difficulty", dr)
	}
}

func TestNarration_DiceDirectiveAlwaysSucceeds(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	// Difficulty 1 is always met on a d20.
	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration:    "a low fence",
		NeedDiceRoll: true,
		Difficulty:   1,
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	act(t, s, "p1", "steps over")

	rs := snap(t, s, roomID)
	if got := findPlayer(t, rs, "p1").Health; got != 100 {
		t.Fatalf("p1 health = %d, want untouched on success", got)
	}
}

func TestNarration_NextTurnDirectiveHonored(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	narrate(t, s, roomID, "the gates creak open")
	act(t, s, "host", "h acts")
	act(t, s, "p1", "p1 acts")
	act(t, s, "p2", "p2 acts")

	// DM turn again; direct the next turn to p1 only.
	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration: "only one may pass",
		NextTurn:  &narration.NextTurn{TurnType: "PLAYER", ActivePlayers: []string{"p1"}},
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	tn := currentTurn(t, s, roomID)
	if len(tn.ActivePlayers) != 1 || tn.ActivePlayers[0] != "p1" {
		t.Fatalf("active players = %v, want directive honored", tn.ActivePlayers)
	}

	out, err = s.Turns.RecordPlayerAction("p2", "tries anyway")
	if got := rejectionCode(t, out, err); got != CodeInactivePlayer {
		t.Fatalf("code = %s, want %s", got, CodeInactivePlayer)
	}
}

func TestNarration_DeclaredOutcomeEndsMatch(t *testing.T) {
	s, bus := newTestSet(t, defaultTestConfig())
	ended := false
	bus.Subscribe(event.TypeMatchEnded, func(event.Event) { ended = true })

	roomID := setupMatch(t, s)
	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration:   "the dragon falls",
		MatchResult: narration.ResultWon,
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	if !ended {
		t.Fatal("expected match.ended event")
	}
	rs := snap(t, s, roomID)
	if rs.CurrentMatchID != "" {
		t.Fatal("expected match reference cleared")
	}
	if len(rs.Matches) != 1 || rs.Matches[0].Status != "ENDED" || rs.Matches[0].Result != "WON" {
		t.Fatalf("match = %+v, want ended with WON", rs.Matches)
	}
}

func TestNarration_DeclaredOutcomeIgnoredWhenDisabled(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.AllowDeclaredOutcome = false
	s, _ := newTestSet(t, cfg)

	roomID := setupMatch(t, s)
	narrateOut, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration:   "you think you have won",
		MatchResult: narration.ResultWon,
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !narrateOut.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", narrateOut.Rejection)
	}

	rs := snap(t, s, roomID)
	if rs.CurrentMatchID == "" {
		t.Fatal("expected match to continue when declared outcomes are disabled")
	}
	tn := currentTurn(t, s, roomID)
	if tn.TurnType != "PLAYER" {
		t.Fatalf("turn = %s, want play to continue", tn.TurnType)
	}
}

func TestNarration_AttributeAndItemUpdates(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration: "a chest and a trap",
		ItemUpdates: []narration.ItemUpdate{
			{PlayerID: "p1", Item: "silver key", Op: narration.ItemOpAdd},
		},
		AttributeUpdates: []narration.AttributeUpdate{
			{PlayerID: "p1", Name: "health", Delta: -25},
			{PlayerID: "p2", Name: "courage", Delta: 2},
		},
		LocationUpdates: map[string]string{"location": "vault antechamber"},
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	rs := snap(t, s, roomID)
	p1 := findPlayer(t, rs, "p1")
	if p1.Health != 75 {
		t.Fatalf("p1 health = %d, want 75", p1.Health)
	}
	if len(p1.Items) != 1 || p1.Items[0] != "silver key" {
		t.Fatalf("p1 items = %v, want the silver key", p1.Items)
	}
	p2 := findPlayer(t, rs, "p2")
	if p2.Attributes["courage"] != 2 {
		t.Fatalf("p2 courage = %d, want 2", p2.Attributes["courage"])
	}
	for _, m := range rs.Matches {
		if m.ID == rs.CurrentMatchID && m.GameState["location"] != "vault antechamber" {
			t.Fatalf("game state = %v, want location update applied", m.GameState)
		}
	}
}

func TestNarration_LethalUpdateRemovesPlayerFromPlay(t *testing.T) {
	s, bus := newTestSet(t, defaultTestConfig())
	died := false
	bus.Subscribe(event.TypePlayerDied, func(event.Event) { died = true })

	roomID := setupMatch(t, s)
	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration: "the trap springs",
		AttributeUpdates: []narration.AttributeUpdate{
			{PlayerID: "p2", Name: "health", Delta: -100},
		},
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	if !died {
		t.Fatal("expected player.died event")
	}
	tn := currentTurn(t, s, roomID)
	for _, id := range tn.ActivePlayers {
		if id == "p2" {
			t.Fatal("expected dead player excluded from the new turn")
		}
	}
}

func TestLeaveRoom_DepartedPlayerCannotWedgeTurn(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	narrate(t, s, roomID, "the gates creak open")

	act(t, s, "host", "h acts")
	act(t, s, "p1", "p1 acts")

	playerTurn := currentTurn(t, s, roomID)
	if playerTurn.Status != "ACTIVE" {
		t.Fatalf("turn status = %s, want still open", playerTurn.Status)
	}

	out, err := s.Rooms.LeaveRoom("p2")
	if err != nil {
		t.Fatalf("LeaveRoom() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("LeaveRoom() rejected: %+v", out.Rejection)
	}

	next := currentTurn(t, s, roomID)
	if next.ID == playerTurn.ID {
		t.Fatal("expected the turn to complete once the missing player left")
	}
	if next.TurnType != "DM" {
		t.Fatalf("next turn = %s, want DM", next.TurnType)
	}
}

func TestNarrationRequest_CarriesRosterActionsAndHistory(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	narrate(t, s, roomID, "chapter one")
	act(t, s, "host", "h acts")
	act(t, s, "p1", "p1 acts")
	act(t, s, "p2", "p2 acts")

	req, err := s.Turns.NarrationRequest(roomID)
	if err != nil {
		t.Fatalf("NarrationRequest() error = %v", err)
	}
	if req.Scene != "a ruined chapel" {
		t.Fatalf("Scene = %q, want the match scene", req.Scene)
	}
	if len(req.Roster) != 3 {
		t.Fatalf("Roster = %+v, want all three players", req.Roster)
	}
	if req.Actions["p1"] != "p1 acts" {
		t.Fatalf("Actions = %v, want last turn's actions", req.Actions)
	}
	if len(req.History) != 1 || req.History[0] != "chapter one" {
		t.Fatalf("History = %v, want the prior narration", req.History)
	}
}

func TestNarrationRequest_FailsWithoutOpenDMTurn(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	narrate(t, s, roomID, "chapter one")

	// Current turn is now a PLAYER turn.
	if _, err := s.Turns.NarrationRequest(roomID); err == nil {
		t.Fatal("expected error when no DM turn is open")
	}
}

func TestResumeMatch_RepublishesUnnarratedDMTurn(t *testing.T) {
	s, bus := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	dmTurn := currentTurn(t, s, roomID)

	pause(t, s, "host")

	// A narration landing after the pause is rejected and lost.
	out, err := s.Turns.RecordNarration(roomID, narration.Response{Narration: "too late"})
	if got := rejectionCode(t, out, err); got != CodeMatchNotActive {
		t.Fatalf("code = %s, want %s", got, CodeMatchNotActive)
	}

	var started []event.Event
	bus.Subscribe(event.TypeTurnStarted, func(e event.Event) { started = append(started, e) })

	resume(t, s, "host")

	if len(started) != 1 {
		t.Fatalf("turn.started events = %d, want the open DM turn re-published", len(started))
	}
	if started[0].TurnID != dmTurn.ID || started[0].TurnType != "DM" {
		t.Fatalf("event = %+v, want turn %s of type DM", started[0], dmTurn.ID)
	}

	// The re-published event lets the narration flow run again.
	narrate(t, s, roomID, "the gates creak open")
	next := currentTurn(t, s, roomID)
	if next.ID == dmTurn.ID || next.TurnType != "PLAYER" {
		t.Fatalf("turn = %s/%s, want a fresh PLAYER turn", next.ID, next.TurnType)
	}
}

func TestResumeMatch_NoRepublishDuringPlayerTurn(t *testing.T) {
	s, bus := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)
	narrate(t, s, roomID, "the gates creak open")

	pause(t, s, "host")

	started := 0
	bus.Subscribe(event.TypeTurnStarted, func(event.Event) { started++ })

	resume(t, s, "host")

	if started != 0 {
		t.Fatalf("turn.started events = %d, want none for an open PLAYER turn", started)
	}
}

func pause(t *testing.T, s *Set, actorID string) {
	t.Helper()
	out, err := s.Matches.PauseMatch(actorID)
	if err != nil {
		t.Fatalf("PauseMatch() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("PauseMatch() rejected: %+v", out.Rejection)
	}
}

func resume(t *testing.T, s *Set, actorID string) {
	t.Helper()
	out, err := s.Matches.ResumeMatch(actorID)
	if err != nil {
		t.Fatalf("ResumeMatch() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("ResumeMatch() rejected: %+v", out.Rejection)
	}
}

func TestNarration_PositiveHealthRevivesFallenPlayer(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration: "the trap springs",
		AttributeUpdates: []narration.AttributeUpdate{
			{PlayerID: "p1", Name: "health", Delta: -100},
		},
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	// p1 is dead and excluded, so the turn completes without them.
	act(t, s, "host", "drags the body clear")
	act(t, s, "p2", "keeps watch")

	out, err = s.Turns.RecordNarration(roomID, narration.Response{
		Narration: "a warm light knits the wounds",
		AttributeUpdates: []narration.AttributeUpdate{
			{PlayerID: "p1", Name: "health", Delta: 30},
		},
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	rs := snap(t, s, roomID)
	p1 := findPlayer(t, rs, "p1")
	if !p1.Alive || p1.Health != player.DefaultHealth {
		t.Fatalf("p1 = alive %v health %d, want revived at default health", p1.Alive, p1.Health)
	}

	tn := currentTurn(t, s, roomID)
	back := false
	for _, id := range tn.ActivePlayers {
		if id == "p1" {
			back = true
		}
	}
	if !back {
		t.Fatalf("active players = %v, want the revived player back in play", tn.ActivePlayers)
	}
}

func TestNarration_NegativeHealthLeavesTheDeadAlone(t *testing.T) {
	s, _ := newTestSet(t, defaultTestConfig())
	roomID := setupMatch(t, s)

	out, err := s.Turns.RecordNarration(roomID, narration.Response{
		Narration: "the trap springs twice",
		AttributeUpdates: []narration.AttributeUpdate{
			{PlayerID: "p1", Name: "health", Delta: -100},
			{PlayerID: "p1", Name: "health", Delta: -10},
		},
	})
	if err != nil {
		t.Fatalf("RecordNarration() error = %v", err)
	}
	if !out.OK() {
		t.Fatalf("RecordNarration() rejected: %+v", out.Rejection)
	}

	p1 := findPlayer(t, snap(t, s, roomID), "p1")
	if p1.Alive || p1.Health != 0 {
		t.Fatalf("p1 = alive %v health %d, want still dead at zero", p1.Alive, p1.Health)
	}
}
