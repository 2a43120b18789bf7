package game

import (
	"retro-platformer/internal/config"
)

// CombatHit describes one resolved player-enemy contact. X and Y are
// the enemy's feet position at contact time, for event payloads and
// effect placement.
type CombatHit struct {
	Stomp bool    `json:"stomp"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ResolveCombat runs the player against every living enemy, in list
// order, each contact evaluated against the player's live state. A
// contact is a stomp when the player is falling faster than the
// threshold and the player's bottom edge is within StompMargin of the
// enemy's top (contact came from above); a stomp kills the enemy and
// launches the player upward, so a second overlap later in the same
// pass classifies against the new velocity.
//
// Any other contact is damage, applied only while the player is not
// invulnerable: one hp, the invulnerability timer, knockback away from
// the enemy. Starting the timer shields the rest of the pass, so at
// most one hit lands per step. Contacts absorbed by invulnerability
// produce no hit entry.
//
// When hp reaches zero the player is reset to the start position with
// full health and zero velocity; died tells the caller to also reset
// the camera. A death leaves level state untouched.
func ResolveCombat(p *Player, enemies []*Enemy, world config.WorldConfig, cfg config.CombatConfig) (hits []CombatHit, died bool) {
	for _, e := range enemies {
		if !e.Alive {
			continue
		}
		pr := p.Rect()
		er := e.Rect()
		if !pr.Overlaps(er) {
			continue
		}

		if p.VY > cfg.StompVYThreshold && pr.Bottom()-er.Y < cfg.StompMargin {
			e.Alive = false
			p.VY = cfg.StompBounce
			p.OnGround = false
			hits = append(hits, CombatHit{Stomp: true, X: e.X, Y: e.Y})
			continue
		}

		if p.Invuln > 0 {
			continue
		}
		p.HP--
		p.Invuln = cfg.InvulnTime
		p.VY = cfg.KnockbackVY
		if p.X >= e.X {
			p.VX = cfg.KnockbackVX
		} else {
			p.VX = -cfg.KnockbackVX
		}
		p.OnGround = false
		hits = append(hits, CombatHit{Stomp: false, X: e.X, Y: e.Y})

		if p.HP <= 0 {
			p.ResetTo(float64(world.PlayerStartX), float64(world.GroundTop()), cfg.StartHP)
			died = true
		}
	}
	return hits, died
}
