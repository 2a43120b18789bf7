package game

import (
	"testing"
	"time"

	"retro-platformer/internal/config"
)

func memoryLeaderboard(size int) *Leaderboard {
	cfg := config.DefaultLeaderboard()
	cfg.AppName = "" // memory only
	cfg.TopSize = size
	return NewLeaderboard(cfg)
}

func run(distance float64) RunRecord {
	return RunRecord{
		RunStats: RunStats{Distance: distance},
		EndedAt:  time.Now(),
	}
}

// TestRunTracker verifies high-water distance and counters
func TestRunTracker(t *testing.T) {
	var rt RunTracker

	rt.Observe(100)
	rt.Observe(50) // backtracking never shrinks the score
	rt.Observe(140)
	rt.AddStomp()
	rt.AddStomp()
	rt.AddDamage()

	cur := rt.Current()
	if cur.Distance != 140 {
		t.Errorf("Expected distance 140, got %v", cur.Distance)
	}
	if cur.Stomps != 2 || cur.DamageTaken != 1 {
		t.Errorf("Expected 2 stomps / 1 hit, got %d / %d", cur.Stomps, cur.DamageTaken)
	}
	if cur.Ticks != 3 {
		t.Errorf("Expected 3 ticks, got %d", cur.Ticks)
	}

	ended := time.Now()
	rec := rt.Finish(ended)
	if rec.Distance != 140 || !rec.EndedAt.Equal(ended) {
		t.Errorf("Finished record wrong: %+v", rec)
	}
	if rt.Current() != (RunStats{}) {
		t.Errorf("Finish should reset the tracker, got %+v", rt.Current())
	}
}

// TestLeaderboardRecordRanks verifies sorted insertion, ranks and the
// size bound
func TestLeaderboardRecordRanks(t *testing.T) {
	lb := memoryLeaderboard(3)

	if rank := lb.Record(run(100)); rank != 1 {
		t.Errorf("First run should rank 1, got %d", rank)
	}
	if rank := lb.Record(run(200)); rank != 1 {
		t.Errorf("Best run should rank 1, got %d", rank)
	}
	if rank := lb.Record(run(50)); rank != 3 {
		t.Errorf("Worst placing run should rank 3, got %d", rank)
	}
	if rank := lb.Record(run(150)); rank != 2 {
		t.Errorf("Expected rank 2, got %d", rank)
	}
	if rank := lb.Record(run(10)); rank != 0 {
		t.Errorf("Non-placing run should rank 0, got %d", rank)
	}

	top := lb.Top()
	if len(top) != 3 {
		t.Fatalf("Expected the list bounded at 3, got %d", len(top))
	}
	wantDistances := []float64{200, 150, 100}
	for i, want := range wantDistances {
		if top[i].Distance != want {
			t.Errorf("Position %d: distance %v, want %v", i, top[i].Distance, want)
		}
	}
}

// TestLeaderboardTies verifies an equal score places after the
// earlier run
func TestLeaderboardTies(t *testing.T) {
	lb := memoryLeaderboard(5)

	lb.Record(run(100))
	if rank := lb.Record(run(100)); rank != 2 {
		t.Errorf("Tied run should place after the earlier one, got rank %d", rank)
	}
	if lb.Len() != 2 {
		t.Errorf("Expected both tied runs retained, got %d", lb.Len())
	}
}

// TestLeaderboardTopIsCopy verifies callers cannot mutate the list
func TestLeaderboardTopIsCopy(t *testing.T) {
	lb := memoryLeaderboard(3)
	lb.Record(run(100))

	top := lb.Top()
	top[0].Distance = 999

	if again := lb.Top(); again[0].Distance != 100 {
		t.Errorf("Internal state mutated through the copy: %v", again[0].Distance)
	}
}

// TestLeaderboardBest verifies the record accessor
func TestLeaderboardBest(t *testing.T) {
	lb := memoryLeaderboard(3)

	if _, ok := lb.Best(); ok {
		t.Error("Empty leaderboard should have no best run")
	}

	lb.Record(run(100))
	lb.Record(run(300))

	best, ok := lb.Best()
	if !ok || best.Distance != 300 {
		t.Errorf("Expected best 300, got %v (ok %v)", best.Distance, ok)
	}
}

// TestLeaderboardPersistence verifies the top list survives a store
// round trip
func TestLeaderboardPersistence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := config.DefaultLeaderboard()
	cfg.AppName = "retro-platformer-test"
	cfg.TopSize = 3

	first := NewLeaderboard(cfg)
	if first.store == nil {
		t.Skip("persistent store unavailable in this environment")
	}
	first.Record(run(250))
	first.Record(run(120))

	second := NewLeaderboard(cfg)
	if second.Len() != 2 {
		t.Fatalf("Expected 2 persisted runs, got %d", second.Len())
	}
	best, _ := second.Best()
	if best.Distance != 250 {
		t.Errorf("Expected persisted best 250, got %v", best.Distance)
	}
}
