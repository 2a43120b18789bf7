package game

import (
	"math"

	"retro-platformer/internal/config"
)

// Enemy is a patrolling hazard bound to the platform it spawned on.
// The platform is referenced by id, never by pointer, so despawning a
// platform cannot leave a dangling reference; the streamer re-validates
// membership every despawn pass. Direction is carried in the sign of
// VX; speed magnitude is constant, there is no enemy acceleration.
type Enemy struct {
	Body
	Platform PlatformID `json:"platform"`
	Alive    bool       `json:"alive"`
}

// NewEnemy stands an enemy on the platform top at x, moving in dir
// (+1 or -1).
func NewEnemy(p Platform, x float64, cfg config.EnemyConfig, dir int) *Enemy {
	return &Enemy{
		Body: Body{
			X:  x,
			Y:  float64(p.Rect.Y),
			VX: cfg.Speed * float64(dir),
			W:  cfg.Width,
			H:  cfg.Height,
		},
		Platform: p.ID,
		Alive:    true,
	}
}

// PatrolPolicy advances one living enemy for one step. Implementations
// flip the sign of VX to turn around; they never change its magnitude
// between flips.
type PatrolPolicy interface {
	Name() string
	Step(e *Enemy, l *Level, dt float64)
}

// NewPatrolPolicy builds the policy selected by configuration. The
// config package validated the name already; an unknown name here
// falls back to the bounded policy.
func NewPatrolPolicy(enemy config.EnemyConfig, phys config.PhysicsConfig) PatrolPolicy {
	if enemy.Policy == config.PatrolPhysics {
		return &PhysicsPatrol{
			Speed:      enemy.Speed,
			Gravity:    phys.Gravity,
			MaxFall:    phys.MaxFallSpeed,
			EdgeMargin: enemy.EdgeMargin,
		}
	}
	return &BoundedPatrol{}
}

// BoundedPatrol slides the enemy along its home platform and flips
// direction when the footprint would leave the span. No gravity, no
// collision: the feet stay pinned to the platform top and x advances
// in raw float units (no rounding).
type BoundedPatrol struct{}

func (*BoundedPatrol) Name() string { return config.PatrolBounded }

func (*BoundedPatrol) Step(e *Enemy, l *Level, dt float64) {
	home, ok := l.PlatformByID(e.Platform)
	if !ok {
		return
	}

	e.X += e.VX * dt

	half := float64(e.W) / 2
	left := float64(home.Rect.X) + half
	right := float64(home.Rect.Right()) - half
	if e.X < left {
		e.X = left
		e.VX = -e.VX
	} else if e.X > right {
		e.X = right
		e.VX = -e.VX
	}

	e.Y = float64(home.Rect.Y)
}

// PhysicsPatrol runs the enemy through the full collision resolver
// with gravity. Direction flips when the step was obstructed (net
// horizontal movement under half the intended displacement), when the
// enemy left its home platform's horizontal span, or within EdgeMargin
// of either platform edge. VX is reassigned as speed times direction
// every step, so a wall hit that zeroed it never slows the patrol.
type PhysicsPatrol struct {
	Speed      float64
	Gravity    float64
	MaxFall    float64
	EdgeMargin int
}

func (*PhysicsPatrol) Name() string { return config.PatrolPhysics }

func (pp *PhysicsPatrol) Step(e *Enemy, l *Level, dt float64) {
	home, ok := l.PlatformByID(e.Platform)
	if !ok {
		return
	}

	dir := 1.0
	if e.VX < 0 {
		dir = -1.0
	}

	e.VY += pp.Gravity * dt
	if e.VY > pp.MaxFall {
		e.VY = pp.MaxFall
	}

	dx := e.VX * dt
	dy := e.VY * dt

	prevX := e.X
	ResolveMove(&e.Body, l.Platforms, dx, dy)

	movedX := e.X - prevX
	span := home.Rect
	fellOff := e.X < float64(span.X) || e.X >= float64(span.Right())
	atEdge := e.X < float64(span.X+pp.EdgeMargin) || e.X > float64(span.Right()-pp.EdgeMargin)
	if math.Abs(movedX) < math.Abs(dx)*0.5 || fellOff || atEdge {
		dir = -dir
	}

	e.VX = pp.Speed * dir
	e.Y = float64(span.Y)
}
