package player

import (
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	p := New("p1", "Ada", time.Now())
	if !p.Alive {
		t.Fatal("expected new player to be alive")
	}
	if p.Health != DefaultHealth {
		t.Fatalf("Health = %d, want %d", p.Health, DefaultHealth)
	}
	if p.Ready {
		t.Fatal("expected new player to be not ready")
	}
}

func TestApplyHealthDelta(t *testing.T) {
	tests := []struct {
		name      string
		delta     int
		wantHP    int
		wantAlive bool
	}{
		{name: "damage", delta: -30, wantHP: 70, wantAlive: true},
		{name: "heal", delta: 10, wantHP: 110, wantAlive: true},
		{name: "lethal", delta: -100, wantHP: 0, wantAlive: false},
		{name: "overkill clamps at zero", delta: -250, wantHP: 0, wantAlive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("p1", "Ada", time.Now()).ApplyHealthDelta(tt.delta)
			if p.Health != tt.wantHP {
				t.Fatalf("Health = %d, want %d", p.Health, tt.wantHP)
			}
			if p.Alive != tt.wantAlive {
				t.Fatalf("Alive = %v, want %v", p.Alive, tt.wantAlive)
			}
		})
	}
}

func TestRevive(t *testing.T) {
	p := New("p1", "Ada", time.Now()).ApplyHealthDelta(-200)
	if p.Alive {
		t.Fatal("expected player to be dead")
	}
	p = p.Revive()
	if !p.Alive || p.Health != DefaultHealth {
		t.Fatalf("Revive() = alive %v health %d, want alive with %d", p.Alive, p.Health, DefaultHealth)
	}
}

func TestWithAttributeCopiesMap(t *testing.T) {
	base := New("p1", "Ada", time.Now()).WithAttribute("strength", 12)
	updated := base.WithAttribute("strength", 15)
	if base.Attributes["strength"] != 12 {
		t.Fatalf("base strength = %d, want 12", base.Attributes["strength"])
	}
	if updated.Attributes["strength"] != 15 {
		t.Fatalf("updated strength = %d, want 15", updated.Attributes["strength"])
	}
}

func TestItems(t *testing.T) {
	p := New("p1", "Ada", time.Now()).AddItem("torch").AddItem("rope").AddItem("torch")
	p = p.RemoveItem("torch")
	if got := p.Items; len(got) != 2 || got[0] != "rope" || got[1] != "torch" {
		t.Fatalf("Items = %v, want first match removed", got)
	}

	unchanged := p.RemoveItem("absent")
	if len(unchanged.Items) != 2 {
		t.Fatalf("Items = %v, want no-op for absent item", unchanged.Items)
	}
}
