package game

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"

	"retro-platformer/internal/config"
)

// RunStats accumulates the run in progress. Distance is the player's
// x high-water mark, so backtracking never shrinks a score.
type RunStats struct {
	Distance    float64 `json:"distance" yaml:"distance"`
	Stomps      int     `json:"stomps" yaml:"stomps"`
	DamageTaken int     `json:"damageTaken" yaml:"damageTaken"`
	Ticks       uint64  `json:"ticks" yaml:"ticks"`
}

// RunRecord is a finished run.
type RunRecord struct {
	RunStats `yaml:",inline"`
	EndedAt  time.Time `json:"endedAt" yaml:"endedAt"`
}

// RunTracker accumulates the live run. Owned by the engine goroutine;
// no locking.
type RunTracker struct {
	cur RunStats
}

// Observe records one step of the run.
func (rt *RunTracker) Observe(playerX float64) {
	rt.cur.Ticks++
	if playerX > rt.cur.Distance {
		rt.cur.Distance = playerX
	}
}

// AddStomp counts an enemy kill.
func (rt *RunTracker) AddStomp() { rt.cur.Stomps++ }

// AddDamage counts a hit taken.
func (rt *RunTracker) AddDamage() { rt.cur.DamageTaken++ }

// Current returns the run so far.
func (rt *RunTracker) Current() RunStats { return rt.cur }

// Finish closes the run and starts a fresh one.
func (rt *RunTracker) Finish(now time.Time) RunRecord {
	rec := RunRecord{RunStats: rt.cur, EndedAt: now}
	rt.cur = RunStats{}
	return rec
}

// Storage keys for the persisted top list.
const (
	leaderboardObject = "leaderboard"
	leaderboardProp   = "top_runs"
)

// Leaderboard keeps the best finished runs by distance, optionally
// persisted through a gdata store. A nil store degrades to memory-only
// (persistence disabled or the data root unavailable); recording and
// queries work the same either way.
type Leaderboard struct {
	mu    sync.RWMutex
	top   []RunRecord // sorted by distance, descending
	size  int
	store *gdata.Manager
}

// NewLeaderboard opens the store named by cfg and loads any persisted
// top list. Store failures are logged and degrade to memory-only.
func NewLeaderboard(cfg config.LeaderboardConfig) *Leaderboard {
	lb := &Leaderboard{size: cfg.TopSize}

	if cfg.AppName != "" {
		m, err := gdata.Open(gdata.Config{AppName: cfg.AppName})
		if err != nil {
			log.Printf("leaderboard: store unavailable: %v (memory only)", err)
		} else {
			lb.store = m
		}
	}

	if err := lb.load(); err != nil {
		log.Printf("leaderboard: load failed: %v (starting empty)", err)
	}
	return lb
}

// Record inserts a finished run, keeping the list sorted and bounded.
// Returns the 1-based rank, or 0 when the run did not place. Placing
// persists the updated list best-effort.
func (lb *Leaderboard) Record(run RunRecord) int {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	idx := sort.Search(len(lb.top), func(i int) bool {
		return lb.top[i].Distance < run.Distance
	})
	if idx >= lb.size {
		return 0
	}

	lb.top = append(lb.top, RunRecord{})
	copy(lb.top[idx+1:], lb.top[idx:])
	lb.top[idx] = run
	if len(lb.top) > lb.size {
		lb.top = lb.top[:lb.size]
	}

	if err := lb.save(); err != nil {
		log.Printf("leaderboard: save failed: %v", err)
	}
	return idx + 1
}

// Top returns a copy of the best runs, best first.
func (lb *Leaderboard) Top() []RunRecord {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return append([]RunRecord(nil), lb.top...)
}

// Best returns the record run, if any.
func (lb *Leaderboard) Best() (RunRecord, bool) {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	if len(lb.top) == 0 {
		return RunRecord{}, false
	}
	return lb.top[0], true
}

// Len returns the number of retained runs.
func (lb *Leaderboard) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.top)
}

func (lb *Leaderboard) load() error {
	if lb.store == nil {
		return nil
	}
	if !lb.store.ObjectPropExists(leaderboardObject, leaderboardProp) {
		return nil
	}

	data, err := lb.store.LoadObjectProp(leaderboardObject, leaderboardProp)
	if err != nil {
		return fmt.Errorf("load top runs: %w", err)
	}

	var top []RunRecord
	if err := yaml.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("unmarshal top runs: %w", err)
	}

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Distance > top[j].Distance
	})
	if len(top) > lb.size {
		top = top[:lb.size]
	}
	lb.top = top
	return nil
}

func (lb *Leaderboard) save() error {
	if lb.store == nil {
		return nil
	}

	data, err := yaml.Marshal(lb.top)
	if err != nil {
		return fmt.Errorf("marshal top runs: %w", err)
	}
	if err := lb.store.SaveObjectProp(leaderboardObject, leaderboardProp, data); err != nil {
		return fmt.Errorf("save top runs: %w", err)
	}
	return nil
}
