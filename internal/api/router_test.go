package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"retro-platformer/internal/api"
	"retro-platformer/internal/config"
	"retro-platformer/internal/game"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// MockEngine implements api.EngineInterface for testing without the
// full engine loop.
type MockEngine struct {
	mu      sync.Mutex
	intents []game.Intent
	resets  int

	seq    atomic.Uint64
	events []game.Event
	runs   []game.RunRecord
}

func NewMockEngine() *MockEngine {
	m := &MockEngine{}
	m.events = []game.Event{
		game.NewEvent(game.EventTypeJump, 10, game.JumpPayload{X: 120, Y: 396, VY: -760}),
		game.NewEvent(game.EventTypeStomp, 20, game.StompPayload{EnemyX: 640, EnemyY: 396}),
	}
	m.runs = []game.RunRecord{
		{RunStats: game.RunStats{Distance: 900, Stomps: 3}, EndedAt: time.Now()},
		{RunStats: game.RunStats{Distance: 400, Stomps: 1}, EndedAt: time.Now()},
	}
	return m
}

func (m *MockEngine) Snapshot() *game.GameSnapshot {
	seq := m.seq.Add(1)
	return &game.GameSnapshot{
		Sequence:  seq,
		Tick:      seq,
		CameraX:   40,
		GroundTop: 396,
		Player: game.PlayerSnapshot{
			X: 640, Y: 396, W: 26, H: 53, HP: 3,
			Facing: "right", OnGround: true,
		},
		PlatformCount: 4,
		EnemyCount:    1,
	}
}

func (m *MockEngine) Events(limit int) []game.Event {
	if limit > 0 && limit < len(m.events) {
		return m.events[:limit]
	}
	return m.events
}

func (m *MockEngine) TopRuns() []game.RunRecord {
	return append([]game.RunRecord(nil), m.runs...)
}

func (m *MockEngine) SubmitIntent(in game.Intent) {
	m.mu.Lock()
	m.intents = append(m.intents, in)
	m.mu.Unlock()
}

func (m *MockEngine) RequestReset() {
	m.mu.Lock()
	m.resets++
	m.mu.Unlock()
}

func (m *MockEngine) Seed() int64 { return 42 }

func (m *MockEngine) EventLogStats() map[string]interface{} {
	return map[string]interface{}{
		"total":   uint64(len(m.events)),
		"dropped": uint64(0),
	}
}

// LastIntent returns the most recently submitted intent.
func (m *MockEngine) LastIntent() (game.Intent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.intents) == 0 {
		return game.Intent{}, false
	}
	return m.intents[len(m.intents)-1], true
}

// IntentCount returns how many intents were submitted.
func (m *MockEngine) IntentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.intents)
}

// ResetCount returns how many resets were requested.
func (m *MockEngine) ResetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// testRouterConfig returns a router config with limits wide open so
// individual tests never trip the rate limiter by accident.
func testRouterConfig(engine api.EngineInterface) api.RouterConfig {
	return api.RouterConfig{
		Engine: engine,
		API: config.APIConfig{
			AllowedOrigins: []string{"*"},
			RateLimitRPS:   1000,
			RateLimitBurst: 1000,
			BroadcastHz:    20,
		},
		DisableLogging: true,
	}
}

// ============================================================================
// Router Purity Tests
// ============================================================================

// TestNewRouterHasNoSideEffects verifies that NewRouter completes
// without opening listeners or hanging on background work.
func TestNewRouterHasNoSideEffects(t *testing.T) {
	limiter := api.NewIPRateLimiter(api.RateLimitConfig{
		RequestsPerSecond: 1000,
		Burst:             1000,
		CleanupInterval:   time.Hour,
	})
	defer limiter.Stop()

	cfg := testRouterConfig(NewMockEngine())
	cfg.RateLimiter = limiter

	router := api.NewRouter(cfg)
	if router == nil {
		t.Fatal("Router should not be nil")
	}
}

// ============================================================================
// API Endpoint Tests
// ============================================================================

// TestAPIHealthz tests the liveness endpoint
func TestAPIHealthz(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(NewMockEngine())))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", result["status"])
	}
}

// TestAPIGetState tests the snapshot endpoint
func TestAPIGetState(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(NewMockEngine())))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var snap game.GameSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if snap.Player.X != 640 {
		t.Errorf("Expected player x 640, got %v", snap.Player.X)
	}
	if snap.GroundTop != 396 {
		t.Errorf("Expected groundTop 396, got %d", snap.GroundTop)
	}
	if snap.PlatformCount != 4 {
		t.Errorf("Expected platformCount 4, got %d", snap.PlatformCount)
	}
}

// TestAPIGetConfig tests the sanitized config endpoint
func TestAPIGetConfig(t *testing.T) {
	cfg := testRouterConfig(NewMockEngine())
	cfg.App = config.AppConfig{
		World:  config.DefaultWorld(),
		Engine: config.DefaultEngine(),
	}
	cfg.App.Engine.TickRate = 60

	ts := httptest.NewServer(api.NewRouter(cfg))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if _, ok := result["world"]; !ok {
		t.Error("Response should contain world section")
	}

	engine, ok := result["engine"].(map[string]interface{})
	if !ok {
		t.Fatal("Response should contain engine section")
	}
	if engine["tickRate"] != float64(60) {
		t.Errorf("Expected tickRate 60, got %v", engine["tickRate"])
	}
	if engine["seed"] != float64(42) {
		t.Errorf("Expected seed 42, got %v", engine["seed"])
	}
}

// TestAPIGetEvents tests the event ring endpoint
func TestAPIGetEvents(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(NewMockEngine())))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Events []game.Event           `json:"events"`
		Stats  map[string]interface{} `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(result.Events) != 2 {
		t.Errorf("Expected 2 events, got %d", len(result.Events))
	}
	if result.Events[0].Type != game.EventTypeJump {
		t.Errorf("Expected first event jump, got %v", result.Events[0].Type)
	}
	if result.Stats["total"] != float64(2) {
		t.Errorf("Expected stats total 2, got %v", result.Stats["total"])
	}
}

// TestAPIGetEventsLimitValidation tests limit parameter validation
func TestAPIGetEventsLimitValidation(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(NewMockEngine())))
	defer ts.Close()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"no limit", "", http.StatusOK},
		{"valid limit", "?limit=1", http.StatusOK},
		{"zero limit", "?limit=0", http.StatusBadRequest},
		{"negative limit", "?limit=-5", http.StatusBadRequest},
		{"garbage limit", "?limit=abc", http.StatusBadRequest},
		{"oversized limit capped", "?limit=100000", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/events" + tt.query)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

// TestAPILeaderboard tests the leaderboard endpoint
func TestAPILeaderboard(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(NewMockEngine())))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Runs  []game.RunRecord `json:"runs"`
		Count int              `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if result.Count != 2 {
		t.Errorf("Expected count 2, got %d", result.Count)
	}
	if len(result.Runs) != 2 || result.Runs[0].Distance != 900 {
		t.Errorf("Expected best run distance 900, got %+v", result.Runs)
	}
}

// TestAPIPostIntent tests input submission
func TestAPIPostIntent(t *testing.T) {
	engine := NewMockEngine()
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(engine)))
	defer ts.Close()

	body := bytes.NewReader([]byte(`{"right": true, "jump": true}`))
	resp, err := http.Post(ts.URL+"/api/intent", "application/json", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	in, ok := engine.LastIntent()
	if !ok {
		t.Fatal("Expected an intent to reach the engine")
	}
	if !in.Right || !in.Jump || in.Left {
		t.Errorf("Intent mismatch: %+v", in)
	}
}

// TestAPIPostIntentValidation tests malformed intent bodies
func TestAPIPostIntentValidation(t *testing.T) {
	engine := NewMockEngine()
	ts := httptest.NewServer(api.NewRouter(testRouterConfig(engine)))
	defer ts.Close()

	body := bytes.NewReader([]byte(`{not json`))
	resp, err := http.Post(ts.URL+"/api/intent", "application/json", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if engine.IntentCount() != 0 {
		t.Error("Malformed intent should not reach the engine")
	}
}

// TestAPIAdminReset tests bearer-token gating on the reset endpoint
func TestAPIAdminReset(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		engine := NewMockEngine()
		cfg := testRouterConfig(engine)
		cfg.API.AdminToken = ""
		ts := httptest.NewServer(api.NewRouter(cfg))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/admin/reset", "application/json", nil)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 with admin disabled, got %d", resp.StatusCode)
		}
		if engine.ResetCount() != 0 {
			t.Error("Reset should not fire when admin is disabled")
		}
	})

	t.Run("missing header", func(t *testing.T) {
		engine := NewMockEngine()
		cfg := testRouterConfig(engine)
		cfg.API.AdminToken = "sekrit"
		ts := httptest.NewServer(api.NewRouter(cfg))
		defer ts.Close()

		resp, err := http.Post(ts.URL+"/api/admin/reset", "application/json", nil)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		engine := NewMockEngine()
		cfg := testRouterConfig(engine)
		cfg.API.AdminToken = "sekrit"
		ts := httptest.NewServer(api.NewRouter(cfg))
		defer ts.Close()

		req, _ := http.NewRequest("POST", ts.URL+"/api/admin/reset", nil)
		req.Header.Set("Authorization", "Bearer nope")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", resp.StatusCode)
		}
		if engine.ResetCount() != 0 {
			t.Error("Reset should not fire with a bad token")
		}
	})

	t.Run("valid token", func(t *testing.T) {
		engine := NewMockEngine()
		cfg := testRouterConfig(engine)
		cfg.API.AdminToken = "sekrit"
		ts := httptest.NewServer(api.NewRouter(cfg))
		defer ts.Close()

		req, _ := http.NewRequest("POST", ts.URL+"/api/admin/reset", nil)
		req.Header.Set("Authorization", "Bearer sekrit")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
		if engine.ResetCount() != 1 {
			t.Errorf("Expected 1 reset, got %d", engine.ResetCount())
		}
	})
}

// ============================================================================
// Middleware Tests
// ============================================================================

// TestAPICORSHeaders verifies CORS headers are set correctly
func TestAPICORSHeaders(t *testing.T) {
	cfg := testRouterConfig(NewMockEngine())
	cfg.API.AllowedOrigins = []string{"http://test.example.com"}

	ts := httptest.NewServer(api.NewRouter(cfg))
	defer ts.Close()

	req, _ := http.NewRequest("GET", ts.URL+"/api/state", nil)
	req.Header.Set("Origin", "http://test.example.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	allowOrigin := resp.Header.Get("Access-Control-Allow-Origin")
	if allowOrigin != "http://test.example.com" {
		t.Errorf("Expected Access-Control-Allow-Origin 'http://test.example.com', got '%s'", allowOrigin)
	}
}

// TestAPIRateLimiting verifies the per-IP limiter rejects floods
func TestAPIRateLimiting(t *testing.T) {
	cfg := testRouterConfig(NewMockEngine())
	cfg.API.RateLimitRPS = 1
	cfg.API.RateLimitBurst = 2

	ts := httptest.NewServer(api.NewRouter(cfg))
	defer ts.Close()

	var gotRateLimited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			gotRateLimited = true
			break
		}
	}

	if !gotRateLimited {
		t.Error("Expected to be rate limited after burst exceeded")
	}
}

// ============================================================================
// Benchmarks
// ============================================================================

// BenchmarkAPIGetState benchmarks the snapshot endpoint end to end
func BenchmarkAPIGetState(b *testing.B) {
	cfg := testRouterConfig(NewMockEngine())
	cfg.API.RateLimitRPS = 1e9
	cfg.API.RateLimitBurst = 1e9

	ts := httptest.NewServer(api.NewRouter(cfg))
	defer ts.Close()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			b.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
	}
}
