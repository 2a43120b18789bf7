package ipc

import (
	"time"

	"retro-platformer/internal/game"
)

// ToGameSnapshot converts a wire snapshot back into the in-process
// form, so render code written against game.GameSnapshot works the
// same whether it runs in the server or in a separate renderer.
func (msg *SnapshotMessage) ToGameSnapshot() *game.GameSnapshot {
	snap := &game.GameSnapshot{
		Sequence:  msg.Sequence,
		Timestamp: time.Unix(0, msg.Timestamp),
		Tick:      msg.Tick,
		CameraX:   msg.CameraX,
		GroundTop: msg.GroundTop,
		Player: game.PlayerSnapshot{
			X:        msg.Player.X,
			Y:        msg.Player.Y,
			VX:       msg.Player.VX,
			VY:       msg.Player.VY,
			W:        msg.Player.W,
			H:        msg.Player.H,
			HP:       msg.Player.HP,
			Facing:   msg.Player.Facing,
			Invuln:   msg.Player.Invuln,
			OnGround: msg.Player.OnGround,
		},
		Run: game.RunStats{
			Distance:    msg.RunDistance,
			Stomps:      msg.RunStomps,
			DamageTaken: msg.RunDamageTaken,
			Ticks:       msg.RunTicks,
		},
		PlatformCount: msg.PlatformCount,
		EnemyCount:    msg.EnemyCount,
	}

	snap.Platforms = make([]game.Platform, len(msg.Platforms))
	for i, p := range msg.Platforms {
		snap.Platforms[i] = game.Platform{
			ID:     game.PlatformID(p.ID),
			Rect:   game.Rect{X: p.X, Y: p.Y, W: p.W, H: p.H},
			Ground: p.Ground,
		}
	}

	snap.Enemies = make([]game.EnemySnapshot, len(msg.Enemies))
	for i, e := range msg.Enemies {
		snap.Enemies[i] = game.EnemySnapshot{
			X:        e.X,
			Y:        e.Y,
			VX:       e.VX,
			W:        e.W,
			H:        e.H,
			Platform: game.PlatformID(e.Platform),
		}
	}

	snap.Effects = make([]game.Effect, len(msg.Effects))
	for i, e := range msg.Effects {
		snap.Effects[i] = game.Effect{
			Kind: e.Kind,
			X:    e.X,
			Y:    e.Y,
			Age:  e.Age,
			TTL:  e.TTL,
		}
	}

	return snap
}
