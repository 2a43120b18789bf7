package game

import (
	"math/rand"

	"retro-platformer/internal/config"
)

// PlatformID identifies a platform for the lifetime of a run. Ids are
// never reused, so a stale id held by an enemy or an event reader
// simply stops resolving once the platform despawns.
type PlatformID uint64

// Platform is a static solid. Ground is true only for the sliding
// ground strip, which is always Platforms[0] and never despawns.
type Platform struct {
	ID     PlatformID `json:"id"`
	Rect   Rect       `json:"rect"`
	Ground bool       `json:"ground,omitempty"`
}

// Level owns the platform list, the enemy list and the generation
// frontier. All mutation happens on the engine goroutine; snapshots
// copy out of it.
//
// FrontierX is the right edge of the furthest platform generated so
// far. It only moves right.
type Level struct {
	Platforms []Platform
	Enemies   []*Enemy
	FrontierX int

	groundTop int
	nextID    PlatformID
	rng       *rand.Rand

	world config.WorldConfig
	cfg   config.LevelConfig
	enemy config.EnemyConfig
}

// NewLevel builds the initial world: the ground strip, a fixed starter
// platform layout near the origin, and an enemy roll for each starter.
func NewLevel(seed int64, world config.WorldConfig, cfg config.LevelConfig, enemy config.EnemyConfig) *Level {
	l := &Level{
		groundTop: world.GroundTop(),
		rng:       rand.New(rand.NewSource(seed)),
		world:     world,
		cfg:       cfg,
		enemy:     enemy,
	}

	l.Platforms = append(l.Platforms, Platform{
		ID:     l.takeID(),
		Rect:   Rect{X: 0, Y: l.groundTop, W: world.WorldRight, H: world.GroundRows * world.Tile},
		Ground: true,
	})

	// Starter layout near the origin.
	starters := []Rect{
		{X: 160, Y: l.groundTop - 80, W: 260, H: cfg.PlatformH},
		{X: 520, Y: l.groundTop - 150, W: 220, H: cfg.PlatformH},
		{X: 830, Y: l.groundTop - 60, W: 180, H: cfg.PlatformH},
	}
	for _, r := range starters {
		p := Platform{ID: l.takeID(), Rect: r}
		l.Platforms = append(l.Platforms, p)
		if e := l.maybeSpawnEnemy(p); e != nil {
			l.Enemies = append(l.Enemies, e)
		}
	}

	for _, p := range l.Platforms {
		if r := p.Rect.Right(); r > l.FrontierX {
			l.FrontierX = r
		}
	}
	return l
}

// GroundTop returns the y of the ground strip's top edge.
func (l *Level) GroundTop() int { return l.groundTop }

// PlatformByID resolves a platform id. The list stays small (despawn
// keeps it bounded), so a linear scan beats any index upkeep.
func (l *Level) PlatformByID(id PlatformID) (Platform, bool) {
	for _, p := range l.Platforms {
		if p.ID == id {
			return p, true
		}
	}
	return Platform{}, false
}

// EnsureAhead generates platforms until the frontier covers the spawn
// horizon ahead of the camera. Returns whatever it spawned so the
// caller can emit events for it.
func (l *Level) EnsureAhead(camX float64) ([]Platform, []*Enemy) {
	var newPlatforms []Platform
	var newEnemies []*Enemy

	targetRight := int(camX) + l.cfg.SpawnAhead
	for l.FrontierX < targetRight {
		p := l.spawnNext()
		l.Platforms = append(l.Platforms, p)
		newPlatforms = append(newPlatforms, p)
		if r := p.Rect.Right(); r > l.FrontierX {
			l.FrontierX = r
		}

		if e := l.maybeSpawnEnemy(p); e != nil {
			l.Enemies = append(l.Enemies, e)
			newEnemies = append(newEnemies, e)
		}
	}
	return newPlatforms, newEnemies
}

// DespawnBehind drops content behind the camera cutoff and returns the
// removal counts. The ground strip never despawns; instead its left
// edge slides forward to chase the cutoff (its right edge stays put,
// so once the camera passes the initial span the strip narrows down to
// a single trailing tile). Enemies go when dead, behind the cutoff, or
// orphaned by their platform despawning.
func (l *Level) DespawnBehind(camX float64) (removedPlatforms, removedEnemies int) {
	cutoff := camX - float64(l.cfg.DespawnBehind)

	ground := &l.Platforms[0]
	if float64(ground.Rect.X) < cutoff {
		newLeft := int(cutoff)
		w := ground.Rect.Right() - newLeft
		if w < l.world.Tile {
			w = l.world.Tile
		}
		ground.Rect.W = w
		ground.Rect.X = newLeft
	}

	kept := l.Platforms[:1]
	for _, p := range l.Platforms[1:] {
		if float64(p.Rect.Right()) >= cutoff {
			kept = append(kept, p)
		}
	}
	removedPlatforms = len(l.Platforms) - len(kept)
	l.Platforms = kept

	keptE := l.Enemies[:0]
	for _, e := range l.Enemies {
		if !e.Alive {
			continue
		}
		if float64(e.Rect().Right()) < cutoff {
			continue
		}
		if _, ok := l.PlatformByID(e.Platform); !ok {
			continue
		}
		keptE = append(keptE, e)
	}
	removedEnemies = len(l.Enemies) - len(keptE)
	for i := len(keptE); i < len(l.Enemies); i++ {
		l.Enemies[i] = nil // release for GC
	}
	l.Enemies = keptE

	return removedPlatforms, removedEnemies
}

func (l *Level) spawnNext() Platform {
	gap := l.randRange(l.cfg.MinGap, l.cfg.MaxGap)
	w := l.randRange(l.cfg.MinWidth, l.cfg.MaxWidth)
	x := l.FrontierX + gap
	y := l.randRange(l.cfg.MinY, l.cfg.MaxY)

	// Keep it above the ground strip.
	if limit := l.groundTop - l.cfg.GroundMargin; y > limit {
		y = limit
	}
	return Platform{
		ID:   l.takeID(),
		Rect: Rect{X: x, Y: y, W: w, H: l.cfg.PlatformH},
	}
}

// maybeSpawnEnemy rolls an enemy for a freshly spawned platform:
// floating platforms only, wide enough to patrol, EnemyChance odds.
func (l *Level) maybeSpawnEnemy(p Platform) *Enemy {
	if p.Rect.Y >= l.groundTop-2 {
		return nil
	}
	if p.Rect.W < l.cfg.EnemyMinWidth {
		return nil
	}
	if l.rng.Float64() > l.cfg.EnemyChance {
		return nil
	}

	lo := p.Rect.X + l.cfg.EnemyInset
	hi := p.Rect.Right() - l.cfg.EnemyInset
	if hi < lo {
		return nil
	}
	x := l.randRange(lo, hi)

	dir := 1
	if l.rng.Intn(2) == 0 {
		dir = -1
	}
	return NewEnemy(p, float64(x), l.enemy, dir)
}

func (l *Level) takeID() PlatformID {
	id := l.nextID
	l.nextID++
	return id
}

// randRange returns a uniform int in [lo, hi], both ends inclusive.
func (l *Level) randRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + l.rng.Intn(hi-lo+1)
}
