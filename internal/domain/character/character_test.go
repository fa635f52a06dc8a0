package character

import "testing"

func TestApplyHealthDelta(t *testing.T) {
	c := New("c1", "p1", "m1", 50)

	c = c.ApplyHealthDelta(-20)
	if c.Health != 30 {
		t.Fatalf("Health = %d, want 30", c.Health)
	}
	if c.Dead() {
		t.Fatal("expected character to be alive at 30 health")
	}

	c = c.ApplyHealthDelta(-100)
	if c.Health != 0 {
		t.Fatalf("Health = %d, want clamp at 0", c.Health)
	}
	if !c.Dead() {
		t.Fatal("expected character to be dead at 0 health")
	}
}

func TestWithAttributeCopiesMap(t *testing.T) {
	base := New("c1", "p1", "m1", 50).WithAttribute("agility", 8)
	updated := base.WithAttribute("agility", 11)
	if base.Attributes["agility"] != 8 {
		t.Fatalf("base agility = %d, want 8", base.Attributes["agility"])
	}
	if updated.Attributes["agility"] != 11 {
		t.Fatalf("updated agility = %d, want 11", updated.Attributes["agility"])
	}
}
