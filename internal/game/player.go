package game

import (
	"math"

	"retro-platformer/internal/config"
)

// Facing is the cosmetic direction the player sprite shows. It never
// affects physics or combat.
type Facing uint8

const (
	FaceFront Facing = iota // Toward the viewer (down key or idle default)
	FaceBack                // Away from the viewer (up key)
	FaceLeft
	FaceRight
)

// String returns the facing name used in snapshots and logs.
func (f Facing) String() string {
	switch f {
	case FaceBack:
		return "back"
	case FaceLeft:
		return "left"
	case FaceRight:
		return "right"
	default:
		return "front"
	}
}

// Player is the controllable kinematic body.
type Player struct {
	Body
	Facing Facing  `json:"-"`
	Invuln float64 `json:"invuln"` // Seconds of combat immunity remaining
	HP     int     `json:"hp"`
}

// NewPlayer spawns a player with its feet at (x, y).
func NewPlayer(x, y float64, world config.WorldConfig, hp int) *Player {
	return &Player{
		Body: Body{
			X: x,
			Y: y,
			W: world.PlayerW,
			H: world.PlayerH,
		},
		Facing: FaceFront,
		HP:     hp,
	}
}

// Integrate advances the player's velocity for one step from the
// current intent: acceleration toward the target speed, standstill
// ground friction with a stop snap, facing, the jump impulse and
// gravity with the fall clamp. Position is untouched; collision
// resolution applies the displacement afterwards. Returns whether a
// jump actually fired this step.
func (p *Player) Integrate(in Intent, dt float64, phys config.PhysicsConfig) bool {
	dir := in.MoveDir()

	target := dir * phys.MoveSpeed
	if p.OnGround {
		p.VX = approach(p.VX, target, phys.AccelGround*dt)
		if dir == 0 {
			p.VX = approach(p.VX, 0, phys.FrictionGround*dt)
			if math.Abs(p.VX) < phys.StopSpeed {
				p.VX = 0
			}
		}
	} else {
		p.VX = approach(p.VX, target, phys.AccelAir*dt)
	}

	switch {
	case dir < 0:
		p.Facing = FaceLeft
	case dir > 0:
		p.Facing = FaceRight
	default:
		if in.Up && !in.Down {
			p.Facing = FaceBack
		} else if in.Down && !in.Up {
			p.Facing = FaceFront
		}
	}

	jumped := false
	if in.Jump && p.OnGround {
		p.VY = phys.JumpVelocity
		p.OnGround = false
		jumped = true
	}

	p.VY += phys.Gravity * dt
	if p.VY > phys.MaxFallSpeed {
		p.VY = phys.MaxFallSpeed
	}

	return jumped
}

// ResetTo moves the player back to a spawn point with full health and
// zero velocity. The invulnerability timer is left alone: a reset
// triggered by a hit keeps the immunity window that hit started.
func (p *Player) ResetTo(x, y float64, hp int) {
	p.X = x
	p.Y = y
	p.VX = 0
	p.VY = 0
	p.OnGround = false
	p.HP = hp
}
