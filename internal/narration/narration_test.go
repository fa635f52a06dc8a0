package narration

import "testing"

func TestFallbackHandsTurnToLivingPlayers(t *testing.T) {
	alive := []string{"a", "b"}
	resp := Fallback(alive)

	if resp.Narration == "" {
		t.Fatal("expected fallback narration text")
	}
	if resp.MatchResult != ResultContinue {
		t.Fatalf("MatchResult = %s, want %s", resp.MatchResult, ResultContinue)
	}
	if resp.NeedDiceRoll {
		t.Fatal("expected no dice requirement in fallback")
	}
	if resp.NextTurn == nil || resp.NextTurn.TurnType != "PLAYER" {
		t.Fatalf("NextTurn = %+v, want PLAYER turn", resp.NextTurn)
	}
	if len(resp.NextTurn.ActivePlayers) != 2 {
		t.Fatalf("ActivePlayers = %v, want both living players", resp.NextTurn.ActivePlayers)
	}

	alive[0] = "mutated"
	if resp.NextTurn.ActivePlayers[0] != "a" {
		t.Fatal("expected fallback to copy the player list")
	}
}
