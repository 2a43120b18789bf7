package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits caps how much world a snapshot copies, bounding the
// work renderers and encoders do per frame no matter what generation
// produces.
type ResourceLimits struct {
	MaxPlatforms int
	MaxEnemies   int
	MaxEffects   int
}

// DefaultLimits provides generous defaults; the despawn pass keeps the
// live lists an order of magnitude smaller.
var DefaultLimits = ResourceLimits{
	MaxPlatforms: 128,
	MaxEnemies:   64,
	MaxEffects:   64,
}

// PlayerSnapshot is an immutable copy of player state for rendering.
type PlayerSnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	W        int     `json:"w"`
	H        int     `json:"h"`
	HP       int     `json:"hp"`
	Facing   string  `json:"facing"`
	Invuln   float64 `json:"invuln"`
	OnGround bool    `json:"onGround"`
}

// EnemySnapshot is an immutable copy of one living enemy.
type EnemySnapshot struct {
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	VX       float64    `json:"vx"`
	W        int        `json:"w"`
	H        int        `json:"h"`
	Platform PlatformID `json:"platform"`
}

// GameSnapshot is a complete immutable view of one tick, safe to share
// across goroutines and to encode for the API, WebSocket and IPC.
// Slices are value copies; nothing aliases engine state.
type GameSnapshot struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Tick      uint64    `json:"tick"`

	CameraX   float64 `json:"cameraX"`
	GroundTop int     `json:"groundTop"`

	Player    PlayerSnapshot  `json:"player"`
	Platforms []Platform      `json:"platforms"`
	Enemies   []EnemySnapshot `json:"enemies"`
	Effects   []Effect        `json:"effects"`

	Run RunStats `json:"run"`

	// World totals before the copy caps applied.
	PlatformCount int `json:"platformCount"`
	EnemyCount    int `json:"enemyCount"`
}

// SnapshotPublisher hands immutable snapshots from the engine
// goroutine to any number of readers. The engine fills a fresh frame
// each tick and publishes it with a single atomic store; readers load
// the latest pointer and may hold it as long as they like. Frames are
// never reused: the WebSocket hub, the IPC publisher and HTTP handlers
// all read concurrently at their own pace, and a recycled buffer could
// be rewritten mid-encode. Snapshots stay small (the despawn pass
// bounds the lists), so the cost is one allocation set per tick.
type SnapshotPublisher struct {
	latest atomic.Pointer[GameSnapshot]
	seq    atomic.Uint64
	limits ResourceLimits
}

// NewSnapshotPublisher creates a publisher with the given copy caps.
func NewSnapshotPublisher(limits ResourceLimits) *SnapshotPublisher {
	return &SnapshotPublisher{limits: limits}
}

// NewFrame returns an empty snapshot with capacity for the configured
// limits. The caller fills it and hands it to Publish.
func (p *SnapshotPublisher) NewFrame() *GameSnapshot {
	return &GameSnapshot{
		Platforms: make([]Platform, 0, p.limits.MaxPlatforms),
		Enemies:   make([]EnemySnapshot, 0, p.limits.MaxEnemies),
		Effects:   make([]Effect, 0, p.limits.MaxEffects),
	}
}

// Publish stamps the snapshot and makes it visible to readers. The
// snapshot must not be mutated afterwards.
func (p *SnapshotPublisher) Publish(snap *GameSnapshot) {
	snap.Sequence = p.seq.Add(1)
	snap.Timestamp = time.Now()
	p.latest.Store(snap)
}

// Latest returns the most recently published snapshot, or nil before
// the first publish.
func (p *SnapshotPublisher) Latest() *GameSnapshot {
	return p.latest.Load()
}

// Limits returns the copy caps.
func (p *SnapshotPublisher) Limits() ResourceLimits {
	return p.limits
}
