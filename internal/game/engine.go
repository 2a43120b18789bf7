// Package game implements the platformer simulation: axis-separated
// rectangle collision, player movement, enemy patrols, procedural
// level streaming, a dead-zone camera and stomp combat, advanced by a
// fixed-rate engine loop. All world state is owned by the engine
// goroutine; the rest of the process observes it through immutable
// snapshots and the event log.
package game

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"retro-platformer/internal/config"
)

// StepResult summarizes one step for hooks and tests.
type StepResult struct {
	Tick    uint64
	Jumped  bool
	Stomps  int
	Damaged bool
	Reset   bool // Player returned to start (death or admin)

	SpawnedPlatforms   int
	SpawnedEnemies     int
	DespawnedPlatforms int
	DespawnedEnemies   int

	// Live world counts after the step.
	Platforms int
	Enemies   int
}

// Engine owns the world (level, player, camera, effects, run) and
// advances it on its own goroutine at the configured tick rate.
// Everything else talks to it through the intent mailbox, the reset
// request flag, snapshots and the event log; world state is never
// shared.
type Engine struct {
	mu sync.Mutex // lifecycle only; world state is goroutine-owned

	cfg  config.AppConfig
	seed int64

	player *Player
	level  *Level
	camera *Camera
	patrol PatrolPolicy

	intents  intentBox
	resetReq atomic.Bool
	effects  []Effect
	run      RunTracker

	leaderboard *Leaderboard
	eventLog    *EventLog
	snapshots   *SnapshotPublisher

	tick uint64

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	done     chan struct{}

	// stepHook observes every step (metrics). Set before Start.
	stepHook func(StepResult, time.Duration)
}

// NewEngine builds a stopped engine: seeded level, player on the
// ground at the start position, centered dead-zone camera, patrol
// policy from config. A first snapshot is published immediately so
// readers never see nil state.
func NewEngine(cfg config.AppConfig) *Engine {
	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	level := NewLevel(seed, cfg.World, cfg.Level, cfg.Enemy)
	e := &Engine{
		cfg:         cfg,
		seed:        seed,
		player:      NewPlayer(float64(cfg.World.PlayerStartX), float64(level.GroundTop()), cfg.World, cfg.Combat.StartHP),
		level:       level,
		camera:      NewCamera(cfg.World.Width, cfg.World.Height, cfg.Camera),
		patrol:      NewPatrolPolicy(cfg.Enemy, cfg.Physics),
		leaderboard: NewLeaderboard(cfg.Leaderboard),
		eventLog:    NewEventLog(cfg.Events),
		snapshots:   NewSnapshotPublisher(DefaultLimits),
	}
	e.publishSnapshot()
	return e
}

// Start begins the tick loop. dt is wall-clock time between ticks;
// Step clamps it. A stopped engine can be started again.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.done = make(chan struct{})
	e.stopChan = make(chan struct{})
	e.ticker = time.NewTicker(time.Second / time.Duration(e.cfg.Engine.TickRate))
	ticker, stop, done := e.ticker, e.stopChan, e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				e.Step(dt, e.intents.Take())
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 engine started: %d TPS, seed %d, patrol %s",
		e.cfg.Engine.TickRate, e.seed, e.patrol.Name())
}

// Stop halts the tick loop and waits for the in-flight step to finish.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	<-e.done
	log.Println("🛑 engine stopped")
}

// Step advances one frame: timers, player integration and collision,
// patrols, combat, camera, generation and despawn, effect aging, run
// tracking, snapshot publish. Exported for tests and replay drivers;
// never call it concurrently with a started engine.
func (e *Engine) Step(dt float64, in Intent) StepResult {
	start := time.Now()

	if dt > e.cfg.Physics.MaxStep {
		dt = e.cfg.Physics.MaxStep
	}

	e.tick++
	res := StepResult{Tick: e.tick}

	if e.resetReq.CompareAndSwap(true, false) {
		e.player.ResetTo(float64(e.cfg.World.PlayerStartX), float64(e.level.GroundTop()), e.cfg.Combat.StartHP)
		e.finalizeRun("admin")
		res.Reset = true
	}

	if e.player.Invuln > 0 {
		e.player.Invuln -= dt
		if e.player.Invuln < 0 {
			e.player.Invuln = 0
		}
	}

	if e.player.Integrate(in, dt, e.cfg.Physics) {
		res.Jumped = true
		e.addEffect(NewJumpDust(e.player.X, e.player.Y))
		e.eventLog.EmitSimple(EventTypeJump, e.tick, JumpPayload{
			X: e.player.X, Y: e.player.Y, VY: e.player.VY,
		})
	}
	ResolveMove(&e.player.Body, e.level.Platforms, e.player.VX*dt, e.player.VY*dt)

	for _, en := range e.level.Enemies {
		if !en.Alive {
			continue
		}
		e.patrol.Step(en, e.level, dt)
	}

	hits, died := ResolveCombat(e.player, e.level.Enemies, e.cfg.World, e.cfg.Combat)
	for _, h := range hits {
		if h.Stomp {
			res.Stomps++
			e.run.AddStomp()
			e.addEffect(NewStompEffect(h.X, h.Y))
			e.eventLog.EmitSimple(EventTypeStomp, e.tick, StompPayload{EnemyX: h.X, EnemyY: h.Y})
		} else {
			res.Damaged = true
			e.run.AddDamage()
			e.addEffect(NewDamageEffect(e.player.X, e.player.Y))
			e.eventLog.EmitSimple(EventTypeDamage, e.tick, DamagePayload{
				EnemyX: h.X, EnemyY: h.Y, HP: e.player.HP,
			})
		}
	}
	if died {
		e.finalizeRun("death")
		res.Reset = true
	}

	e.camera.Update(e.player.X, e.player.Y)

	newPlatforms, newEnemies := e.level.EnsureAhead(e.camera.X)
	res.SpawnedPlatforms = len(newPlatforms)
	res.SpawnedEnemies = len(newEnemies)
	for _, p := range newPlatforms {
		e.eventLog.EmitSimple(EventTypePlatformSpawn, e.tick, PlatformSpawnPayload{
			ID: p.ID, X: p.Rect.X, Y: p.Rect.Y, W: p.Rect.W, H: p.Rect.H,
		})
	}
	for _, en := range newEnemies {
		dir := 1
		if en.VX < 0 {
			dir = -1
		}
		e.eventLog.EmitSimple(EventTypeEnemySpawn, e.tick, EnemySpawnPayload{
			Platform: en.Platform, X: en.X, Dir: dir,
		})
	}

	removedPlatforms, removedEnemies := e.level.DespawnBehind(e.camera.X)
	res.DespawnedPlatforms = removedPlatforms
	res.DespawnedEnemies = removedEnemies
	if removedPlatforms > 0 || removedEnemies > 0 {
		e.eventLog.EmitSimple(EventTypeDespawn, e.tick, DespawnPayload{
			Platforms: removedPlatforms,
			Enemies:   removedEnemies,
			Cutoff:    e.camera.X - float64(e.cfg.Level.DespawnBehind),
		})
	}

	e.effects = ageEffects(e.effects, dt)
	e.run.Observe(e.player.X)
	e.publishSnapshot()

	res.Platforms = len(e.level.Platforms)
	res.Enemies = e.aliveEnemies()

	if e.stepHook != nil {
		e.stepHook(res, time.Since(start))
	}
	return res
}

// finalizeRun closes the current run after the player was put back at
// the start: record it, rewind the camera, emit the reset and record
// events.
func (e *Engine) finalizeRun(reason string) {
	rec := e.run.Finish(time.Now())
	rank := e.leaderboard.Record(rec)
	e.camera.X = 0

	e.eventLog.EmitSimple(EventTypePlayerReset, e.tick, PlayerResetPayload{
		Reason: reason, X: e.player.X, Y: e.player.Y, HP: e.player.HP,
	})
	e.eventLog.EmitSimple(EventTypeRunRecord, e.tick, RunRecordPayload{Run: rec, Rank: rank})

	log.Printf("💀 run ended (%s): distance %.0f, %d stomps, %d hits taken, rank %d",
		reason, rec.Distance, rec.Stomps, rec.DamageTaken, rank)
}

func (e *Engine) addEffect(ef Effect) {
	if len(e.effects) >= e.snapshots.Limits().MaxEffects {
		return
	}
	e.effects = append(e.effects, ef)
}

func (e *Engine) aliveEnemies() int {
	n := 0
	for _, en := range e.level.Enemies {
		if en.Alive {
			n++
		}
	}
	return n
}

// publishSnapshot copies the world into a fresh snapshot, capped by
// the publisher's limits, and publishes it.
func (e *Engine) publishSnapshot() {
	limits := e.snapshots.Limits()
	snap := e.snapshots.NewFrame()
	snap.Tick = e.tick
	snap.CameraX = e.camera.X
	snap.GroundTop = e.level.GroundTop()
	snap.Player = PlayerSnapshot{
		X:        e.player.X,
		Y:        e.player.Y,
		VX:       e.player.VX,
		VY:       e.player.VY,
		W:        e.player.W,
		H:        e.player.H,
		HP:       e.player.HP,
		Facing:   e.player.Facing.String(),
		Invuln:   e.player.Invuln,
		OnGround: e.player.OnGround,
	}

	for _, p := range e.level.Platforms {
		if len(snap.Platforms) >= limits.MaxPlatforms {
			break
		}
		snap.Platforms = append(snap.Platforms, p)
	}

	alive := 0
	for _, en := range e.level.Enemies {
		if !en.Alive {
			continue
		}
		alive++
		if len(snap.Enemies) >= limits.MaxEnemies {
			continue // keep counting
		}
		snap.Enemies = append(snap.Enemies, EnemySnapshot{
			X: en.X, Y: en.Y, VX: en.VX, W: en.W, H: en.H, Platform: en.Platform,
		})
	}

	for _, ef := range e.effects {
		if len(snap.Effects) >= limits.MaxEffects {
			break
		}
		snap.Effects = append(snap.Effects, ef)
	}

	snap.Run = e.run.Current()
	snap.PlatformCount = len(e.level.Platforms)
	snap.EnemyCount = alive

	e.snapshots.Publish(snap)
}

// SubmitIntent stores one frame of input for the next step. Safe from
// any goroutine; movement is latest-wins and jump latches until
// consumed.
func (e *Engine) SubmitIntent(in Intent) {
	e.intents.Submit(in)
}

// RequestReset asks the engine to end the run at the top of the next
// step. Safe from any goroutine.
func (e *Engine) RequestReset() {
	e.resetReq.Store(true)
}

// Snapshot returns the latest published snapshot. Never nil.
func (e *Engine) Snapshot() *GameSnapshot {
	return e.snapshots.Latest()
}

// Events returns up to limit recent events, oldest first.
func (e *Engine) Events(limit int) []Event {
	return e.eventLog.Recent(limit)
}

// TopRuns returns the best finished runs, best first.
func (e *Engine) TopRuns() []RunRecord {
	return e.leaderboard.Top()
}

// Seed returns the effective level seed.
func (e *Engine) Seed() int64 {
	return e.seed
}

// SetStepHook installs the per-step observer. Call before Start.
func (e *Engine) SetStepHook(fn func(StepResult, time.Duration)) {
	e.stepHook = fn
}

// StartEventLog opens the event sinks.
func (e *Engine) StartEventLog() error {
	return e.eventLog.Start()
}

// StopEventLog flushes and closes the event sinks.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLogStats returns event pipeline counters for monitoring.
func (e *Engine) EventLogStats() map[string]interface{} {
	return e.eventLog.Stats()
}
