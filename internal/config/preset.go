package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset is a partial configuration overlay loaded from a YAML file.
// Only the gameplay-feel sections can be preset; server/stream wiring
// stays with the environment. All fields are optional; absent keys keep
// the current value.
type Preset struct {
	Physics *PhysicsPreset `yaml:"physics"`
	Level   *LevelPreset   `yaml:"level"`
	Enemy   *EnemyPreset   `yaml:"enemy"`
	Combat  *CombatPreset  `yaml:"combat"`
}

type PhysicsPreset struct {
	MoveSpeed      *float64 `yaml:"move_speed"`
	AccelGround    *float64 `yaml:"accel_ground"`
	AccelAir       *float64 `yaml:"accel_air"`
	FrictionGround *float64 `yaml:"friction_ground"`
	Gravity        *float64 `yaml:"gravity"`
	JumpVelocity   *float64 `yaml:"jump_velocity"`
	MaxFallSpeed   *float64 `yaml:"max_fall_speed"`
	MaxStep        *float64 `yaml:"max_step"`
	StopSpeed      *float64 `yaml:"stop_speed"`
}

type LevelPreset struct {
	SpawnAhead    *int     `yaml:"spawn_ahead"`
	DespawnBehind *int     `yaml:"despawn_behind"`
	MinGap        *int     `yaml:"min_gap"`
	MaxGap        *int     `yaml:"max_gap"`
	MinWidth      *int     `yaml:"min_width"`
	MaxWidth      *int     `yaml:"max_width"`
	PlatformH     *int     `yaml:"platform_h"`
	MinY          *int     `yaml:"min_y"`
	MaxY          *int     `yaml:"max_y"`
	GroundMargin  *int     `yaml:"ground_margin"`
	EnemyChance   *float64 `yaml:"enemy_chance"`
	EnemyMinWidth *int     `yaml:"enemy_min_width"`
	EnemyInset    *int     `yaml:"enemy_inset"`
}

type EnemyPreset struct {
	Policy     *string  `yaml:"policy"`
	Width      *int     `yaml:"width"`
	Height     *int     `yaml:"height"`
	Speed      *float64 `yaml:"speed"`
	EdgeMargin *int     `yaml:"edge_margin"`
}

type CombatPreset struct {
	StompVYThreshold *float64 `yaml:"stomp_threshold"`
	StompMargin      *int     `yaml:"stomp_margin"`
	StompBounce      *float64 `yaml:"stomp_bounce"`
	KnockbackVX      *float64 `yaml:"knockback_vx"`
	KnockbackVY      *float64 `yaml:"knockback_vy"`
	InvulnTime       *float64 `yaml:"invuln_time"`
	StartHP          *int     `yaml:"start_hp"`
}

// ApplyPresetFile reads a YAML preset and overlays it onto the
// configuration. Unknown keys are rejected so a typo in a preset does
// not silently fall back to defaults.
func (c *AppConfig) ApplyPresetFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read preset: %w", err)
	}
	return c.ApplyPreset(data)
}

// ApplyPreset overlays YAML preset bytes onto the configuration.
func (c *AppConfig) ApplyPreset(data []byte) error {
	var p Preset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("parse preset: %w", err)
	}

	if p.Physics != nil {
		setFloat(&c.Physics.MoveSpeed, p.Physics.MoveSpeed)
		setFloat(&c.Physics.AccelGround, p.Physics.AccelGround)
		setFloat(&c.Physics.AccelAir, p.Physics.AccelAir)
		setFloat(&c.Physics.FrictionGround, p.Physics.FrictionGround)
		setFloat(&c.Physics.Gravity, p.Physics.Gravity)
		setFloat(&c.Physics.JumpVelocity, p.Physics.JumpVelocity)
		setFloat(&c.Physics.MaxFallSpeed, p.Physics.MaxFallSpeed)
		setFloat(&c.Physics.MaxStep, p.Physics.MaxStep)
		setFloat(&c.Physics.StopSpeed, p.Physics.StopSpeed)
	}
	if p.Level != nil {
		setInt(&c.Level.SpawnAhead, p.Level.SpawnAhead)
		setInt(&c.Level.DespawnBehind, p.Level.DespawnBehind)
		setInt(&c.Level.MinGap, p.Level.MinGap)
		setInt(&c.Level.MaxGap, p.Level.MaxGap)
		setInt(&c.Level.MinWidth, p.Level.MinWidth)
		setInt(&c.Level.MaxWidth, p.Level.MaxWidth)
		setInt(&c.Level.PlatformH, p.Level.PlatformH)
		setInt(&c.Level.MinY, p.Level.MinY)
		setInt(&c.Level.MaxY, p.Level.MaxY)
		setInt(&c.Level.GroundMargin, p.Level.GroundMargin)
		setFloat(&c.Level.EnemyChance, p.Level.EnemyChance)
		setInt(&c.Level.EnemyMinWidth, p.Level.EnemyMinWidth)
		setInt(&c.Level.EnemyInset, p.Level.EnemyInset)
	}
	if p.Enemy != nil {
		if p.Enemy.Policy != nil {
			c.Enemy.Policy = *p.Enemy.Policy
		}
		setInt(&c.Enemy.Width, p.Enemy.Width)
		setInt(&c.Enemy.Height, p.Enemy.Height)
		setFloat(&c.Enemy.Speed, p.Enemy.Speed)
		setInt(&c.Enemy.EdgeMargin, p.Enemy.EdgeMargin)
	}
	if p.Combat != nil {
		setFloat(&c.Combat.StompVYThreshold, p.Combat.StompVYThreshold)
		setInt(&c.Combat.StompMargin, p.Combat.StompMargin)
		setFloat(&c.Combat.StompBounce, p.Combat.StompBounce)
		setFloat(&c.Combat.KnockbackVX, p.Combat.KnockbackVX)
		setFloat(&c.Combat.KnockbackVY, p.Combat.KnockbackVY)
		setFloat(&c.Combat.InvulnTime, p.Combat.InvulnTime)
		setInt(&c.Combat.StartHP, p.Combat.StartHP)
	}

	return nil
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
