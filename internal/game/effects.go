package game

// Effect kinds understood by renderers.
const (
	EffectStomp    = "stomp"
	EffectDamage   = "damage"
	EffectJumpDust = "jump_dust"
)

// Effect is a short-lived world-space visual marker spawned by the
// step (stomp poof, damage flash, jump dust). The engine only ages it;
// renderers decide what it looks like. Value type so the aging pass
// and snapshots never allocate per effect.
type Effect struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Age  float64 `json:"age"` // Seconds since spawn
	TTL  float64 `json:"ttl"` // Lifetime in seconds
}

// Alpha returns the remaining-life fraction, 1 at spawn fading to 0.
func (e Effect) Alpha() float64 {
	if e.TTL <= 0 {
		return 0
	}
	a := 1 - e.Age/e.TTL
	if a < 0 {
		return 0
	}
	return a
}

// NewStompEffect marks an enemy killed at (x, y).
func NewStompEffect(x, y float64) Effect {
	return Effect{Kind: EffectStomp, X: x, Y: y, TTL: 0.4}
}

// NewDamageEffect marks the player hit at (x, y).
func NewDamageEffect(x, y float64) Effect {
	return Effect{Kind: EffectDamage, X: x, Y: y, TTL: 0.3}
}

// NewJumpDust marks a takeoff at the player's feet.
func NewJumpDust(x, y float64) Effect {
	return Effect{Kind: EffectJumpDust, X: x, Y: y, TTL: 0.25}
}

// ageEffects advances and filters a live effect list in place,
// zero-allocation.
func ageEffects(effects []Effect, dt float64) []Effect {
	n := 0
	for i := range effects {
		effects[i].Age += dt
		if effects[i].Age < effects[i].TTL {
			effects[n] = effects[i]
			n++
		}
	}
	return effects[:n]
}
