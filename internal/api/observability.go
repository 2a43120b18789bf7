package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"retro-platformer/internal/config"
	"retro-platformer/internal/game"
)

// Metrics with bounded cardinality (no per-entity labels)
var (
	// Engine metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "game_tick_duration_seconds",
		Help:    "Time spent in one game step",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.0166, 0.033},
	})

	platformCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_platform_count",
		Help: "Live platforms in the world",
	})

	enemyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_enemy_count",
		Help: "Live enemies in the world",
	})

	runDistance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_run_distance_pixels",
		Help: "Current run's best distance",
	})

	stompsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_stomps_total",
		Help: "Enemies defeated by stomping",
	})

	damageTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_damage_total",
		Help: "Hits taken by the player",
	})

	resetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_resets_total",
		Help: "Player resets from death or admin request",
	})

	spawnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_spawns_total",
		Help: "Entities created by world streaming",
	}, []string{"kind"}) // Bounded: "platform", "enemy"

	despawnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_despawns_total",
		Help: "Entities removed by world streaming",
	}, []string{"kind"})

	// Event pipeline metrics
	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_admitted_total",
		Help: "Events admitted to the log",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped by rate limiting or backpressure",
	})

	// DoS detection metrics - ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter, origin check or auth",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "bad_token", "ws_total_limit", "ws_ip_limit"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the chi route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})

	wsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_dropped_total",
		Help: "WebSocket messages dropped on slow clients",
	})
)

// ObserveEngine wires the engine's step hook into the metrics above.
// Call before Engine.Start; the hook runs on the engine goroutine so
// everything here must stay cheap.
func ObserveEngine(e *game.Engine) {
	e.SetStepHook(func(res game.StepResult, d time.Duration) {
		tickDuration.Observe(d.Seconds())
		platformCount.Set(float64(res.Platforms))
		enemyCount.Set(float64(res.Enemies))

		if res.Stomps > 0 {
			stompsTotal.Add(float64(res.Stomps))
		}
		if res.Damaged {
			damageTotal.Inc()
		}
		if res.Reset {
			resetsTotal.Inc()
		}
		if res.SpawnedPlatforms > 0 {
			spawnsTotal.WithLabelValues("platform").Add(float64(res.SpawnedPlatforms))
		}
		if res.SpawnedEnemies > 0 {
			spawnsTotal.WithLabelValues("enemy").Add(float64(res.SpawnedEnemies))
		}
		if res.DespawnedPlatforms > 0 {
			despawnsTotal.WithLabelValues("platform").Add(float64(res.DespawnedPlatforms))
		}
		if res.DespawnedEnemies > 0 {
			despawnsTotal.WithLabelValues("enemy").Add(float64(res.DespawnedEnemies))
		}

		if snap := e.Snapshot(); snap != nil {
			runDistance.Set(snap.Run.Distance)
		}

		// Event counters move slowly; sampling once a second is plenty.
		if res.Tick%60 == 0 {
			stats := e.EventLogStats()
			if total, ok := stats["total"].(uint64); ok {
				eventLogTotal.Set(float64(total))
			}
			if dropped, ok := stats["dropped"].(uint64); ok {
				eventLogDropped.Set(float64(dropped))
			}
		}
	})
}

// StartDebugServer starts the internal observability server with pprof
// and Prometheus endpoints. It binds to localhost unless external
// exposure is explicitly allowed via ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg config.APIConfig) error {
	if !cfg.DebugEnabled {
		log.Println("📊 Debug server disabled")
		return nil
	}

	addr := cfg.DebugAddr
	if addr == "" {
		addr = "127.0.0.1:6060"
	}
	if !isLoopbackAddr(addr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		log.Println("⚠️ Debug server forced to localhost")
		addr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		log.Printf("📊 Debug server starting on %s", addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", addr)
		log.Printf("   - metrics: http://%s/metrics", addr)

		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return nil
}

// isLoopbackAddr reports whether a listen address binds localhost only.
func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of the bounded values listed on the metric.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// IncrementWSDropped counts a message dropped on a backlogged client
func IncrementWSDropped() {
	wsDroppedTotal.Inc()
}
