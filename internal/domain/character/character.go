// Package character defines the per-match character sheet for a player.
package character

// Character is the in-fiction avatar a player controls for one match.
// At most one character exists per player per match.
type Character struct {
	ID         string
	PlayerID   string
	MatchID    string
	Health     int
	Attributes map[string]int
}

// New constructs a character with the provided starting health.
func New(id, playerID, matchID string, health int) Character {
	return Character{
		ID:       id,
		PlayerID: playerID,
		MatchID:  matchID,
		Health:   health,
	}
}

// ApplyHealthDelta adjusts health, clamping at zero.
func (c Character) ApplyHealthDelta(delta int) Character {
	updated := c
	updated.Health += delta
	if updated.Health < 0 {
		updated.Health = 0
	}
	return updated
}

// WithAttribute sets a named attribute value.
func (c Character) WithAttribute(name string, value int) Character {
	updated := c
	updated.Attributes = make(map[string]int, len(c.Attributes)+1)
	for k, v := range c.Attributes {
		updated.Attributes[k] = v
	}
	updated.Attributes[name] = value
	return updated
}

// Dead reports whether the character is out of health.
func (c Character) Dead() bool {
	return c.Health <= 0
}
