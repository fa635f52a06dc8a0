// Package player defines the player entity and its pure operations.
package player

import "time"

// DefaultHealth is the starting health for a new player.
const DefaultHealth = 100

// Player represents a connected participant.
//
// Mutating methods return an updated copy and never modify the receiver.
// Attributes and Items are copied on write so shared snapshots stay stable.
type Player struct {
	ID         string
	Name       string
	RoomID     string
	Alive      bool
	Health     int
	Attributes map[string]int
	Items      []string
	Ready      bool
	JoinedAt   time.Time
}

// New constructs an alive player with default health.
func New(id, name string, now time.Time) Player {
	return Player{
		ID:       id,
		Name:     name,
		Alive:    true,
		Health:   DefaultHealth,
		JoinedAt: now,
	}
}

// WithRoom records the room the player belongs to.
func (p Player) WithRoom(roomID string) Player {
	updated := p
	updated.RoomID = roomID
	return updated
}

// WithReady sets the readiness flag.
func (p Player) WithReady(ready bool) Player {
	updated := p
	updated.Ready = ready
	return updated
}

// ApplyHealthDelta adjusts health, clamping at zero. A player whose health
// reaches zero is marked dead.
func (p Player) ApplyHealthDelta(delta int) Player {
	updated := p
	updated.Health += delta
	if updated.Health <= 0 {
		updated.Health = 0
		updated.Alive = false
	}
	return updated
}

// Revive restores a dead player to the default health.
func (p Player) Revive() Player {
	updated := p
	updated.Alive = true
	updated.Health = DefaultHealth
	return updated
}

// WithAttribute sets a named attribute value.
func (p Player) WithAttribute(name string, value int) Player {
	updated := p
	updated.Attributes = make(map[string]int, len(p.Attributes)+1)
	for k, v := range p.Attributes {
		updated.Attributes[k] = v
	}
	updated.Attributes[name] = value
	return updated
}

// AddItem appends an item to the inventory.
func (p Player) AddItem(item string) Player {
	updated := p
	updated.Items = append(append([]string(nil), p.Items...), item)
	return updated
}

// RemoveItem removes the first matching item from the inventory. Removing an
// absent item is a no-op.
func (p Player) RemoveItem(item string) Player {
	updated := p
	updated.Items = make([]string, 0, len(p.Items))
	removed := false
	for _, it := range p.Items {
		if !removed && it == item {
			removed = true
			continue
		}
		updated.Items = append(updated.Items, it)
	}
	return updated
}
