package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"retro-platformer/internal/game"
)

// Handler methods for routerHandlers. These serve both the standalone
// router (for testing) and the full Server.

const (
	defaultEventLimit = 64
	maxEventLimit     = 256
)

func (h *routerHandlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"tick":   snap.Tick,
	})
}

// handleGetState serves the latest snapshot verbatim. The snapshot is
// immutable, so it is encoded without copying or locking.
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

// handleGetConfig exposes the tunables a client or overlay needs to
// interpret snapshots. Secrets and server internals stay out.
func (h *routerHandlers) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"world":   h.app.World,
		"physics": h.app.Physics,
		"camera":  h.app.Camera,
		"level":   h.app.Level,
		"enemy":   h.app.Enemy,
		"combat":  h.app.Combat,
		"engine": map[string]interface{}{
			"tickRate": h.app.Engine.TickRate,
			"seed":     h.engine.Seed(),
		},
		"broadcastHz": h.api.BroadcastHz,
	})
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = v
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	writeJSON(w, map[string]interface{}{
		"events": h.engine.Events(limit),
		"stats":  h.engine.EventLogStats(),
	})
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	runs := h.engine.TopRuns()
	writeJSON(w, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *routerHandlers) handlePostIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Left  bool `json:"left"`
		Right bool `json:"right"`
		Up    bool `json:"up"`
		Down  bool `json:"down"`
		Jump  bool `json:"jump"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	h.engine.SubmitIntent(game.Intent{
		Left:  req.Left,
		Right: req.Right,
		Up:    req.Up,
		Down:  req.Down,
		Jump:  req.Jump,
	})

	writeJSON(w, map[string]bool{"accepted": true})
}

func (h *routerHandlers) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	h.engine.RequestReset()
	writeJSON(w, map[string]bool{"accepted": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
