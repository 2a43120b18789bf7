package game

import (
	"math"
	"testing"
)

// TestEffectConstructors verifies kinds and placement
func TestEffectConstructors(t *testing.T) {
	tests := []struct {
		name string
		e    Effect
		kind string
	}{
		{"stomp", NewStompEffect(10, 20), EffectStomp},
		{"damage", NewDamageEffect(10, 20), EffectDamage},
		{"jump dust", NewJumpDust(10, 20), EffectJumpDust},
	}

	for _, tt := range tests {
		if tt.e.Kind != tt.kind {
			t.Errorf("%s: kind %q, want %q", tt.name, tt.e.Kind, tt.kind)
		}
		if tt.e.X != 10 || tt.e.Y != 20 {
			t.Errorf("%s: position (%v, %v), want (10, 20)", tt.name, tt.e.X, tt.e.Y)
		}
		if tt.e.TTL <= 0 {
			t.Errorf("%s: non-positive TTL %v", tt.name, tt.e.TTL)
		}
		if tt.e.Age != 0 {
			t.Errorf("%s: fresh effect should have age 0, got %v", tt.name, tt.e.Age)
		}
	}
}

// TestEffectAlpha verifies the fade curve
func TestEffectAlpha(t *testing.T) {
	e := Effect{TTL: 0.4}

	if e.Alpha() != 1 {
		t.Errorf("Fresh effect alpha should be 1, got %v", e.Alpha())
	}

	e.Age = 0.2
	if math.Abs(e.Alpha()-0.5) > 1e-9 {
		t.Errorf("Half-life alpha should be 0.5, got %v", e.Alpha())
	}

	e.Age = 0.5
	if e.Alpha() != 0 {
		t.Errorf("Expired alpha should clamp to 0, got %v", e.Alpha())
	}

	if (Effect{}).Alpha() != 0 {
		t.Error("Zero-TTL effect should have alpha 0")
	}
}

// TestAgeEffects verifies aging expires effects in place
func TestAgeEffects(t *testing.T) {
	effects := []Effect{
		NewStompEffect(0, 0),  // TTL 0.4
		NewDamageEffect(0, 0), // TTL 0.3
		NewJumpDust(0, 0),     // TTL 0.25
	}

	effects = ageEffects(effects, 0.3)

	if len(effects) != 1 {
		t.Fatalf("Expected 1 survivor, got %d", len(effects))
	}
	if effects[0].Kind != EffectStomp {
		t.Errorf("Expected the longest-lived effect to survive, got %q", effects[0].Kind)
	}
	if math.Abs(effects[0].Age-0.3) > 1e-9 {
		t.Errorf("Expected age 0.3, got %v", effects[0].Age)
	}

	effects = ageEffects(effects, 0.2)
	if len(effects) != 0 {
		t.Errorf("Expected all effects expired, got %d", len(effects))
	}

	if got := ageEffects(nil, 0.1); len(got) != 0 {
		t.Errorf("Aging nil should stay empty, got %d", len(got))
	}
}
