package api

import (
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"strconv"
	"time"

	"pitchside/internal/config"
	"pitchside/internal/match"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-player labels)
var (
	// Match engine metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Wall time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "match_ticks_total",
		Help: "Simulation ticks completed",
	})

	matchClock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "match_clock_seconds",
		Help: "Simulated playing time elapsed",
	})

	matchPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "match_phase",
		Help: "Current phase: 0 not started, 1 in progress, 2 half time, 3 full time, 4 abandoned",
	})

	matchScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "match_score",
		Help: "Goals per side",
	}, []string{"side"}) // Bounded: "home", "away"

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_events_total",
		Help: "Match events recorded by type",
	}, []string{"type"}) // Bounded by the event type enum

	rejectedActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_rejected_actions_total",
		Help: "Player actions replaced with idle after validation",
	}, []string{"kind"}) // Bounded by the action kind enum

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "admin_token"

	// HTTP metrics with bounded labels
	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the full URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "WebSocket messages queued for clients",
	}, []string{"type"}) // Bounded: "snapshot", "event"
)

// MatchMetrics exports engine notifications to Prometheus. It implements
// match.Observer and is attached with match.WithObserver.
type MatchMetrics struct{}

var _ match.Observer = MatchMetrics{}

func (MatchMetrics) TickCompleted(s *match.Snapshot, elapsed time.Duration) {
	RecordTick(elapsed)
	matchClock.Set(s.Clock.Seconds())
	matchScore.WithLabelValues(match.Home.String()).Set(float64(s.Score[match.Home]))
	matchScore.WithLabelValues(match.Away.String()).Set(float64(s.Score[match.Away]))
}

func (MatchMetrics) EventRecorded(ev match.Event) {
	eventsTotal.WithLabelValues(ev.Type.String()).Inc()
}

func (MatchMetrics) ActionRejected(err *match.InvalidActionError) {
	rejectedActions.WithLabelValues(err.Kind.String()).Inc()
}

func (MatchMetrics) PhaseChanged(_, to match.Phase) {
	matchPhase.Set(float64(to))
}

// StartDebugServer starts the internal observability server and returns it
// so the caller can shut it down. Returns nil when disabled.
// CRITICAL: This binds to loopback only to prevent pprof-based DoS
func StartDebugServer(cfg config.ObservabilityConfig) *http.Server {
	if !cfg.EnableDebug {
		log.Println("📊 Debug server disabled")
		return nil
	}

	addr := debugAddr(cfg.DebugAddr)

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

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("📊 Debug server starting on %s", addr)
		log.Printf("   - pprof:   http://%s/debug/pprof/", addr)
		log.Printf("   - metrics: http://%s/metrics", addr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()

	return srv
}

// debugAddr forces addr onto loopback unless ALLOW_DEBUG_EXTERNAL=true.
func debugAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		port = "6060"
	}
	if host == "localhost" {
		return addr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr
	}
	if os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true" && err == nil {
		return addr
	}
	log.Println("⚠️ Debug server forced to localhost for security")
	return net.JoinHostPort("127.0.0.1", port)
}

// requestMetrics records latency and status per chi route pattern.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			endpoint = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// RecordTick records tick timing for metrics
func RecordTick(duration time.Duration) {
	tickDuration.Observe(duration.Seconds())
	ticksTotal.Inc()
}

// RecordConnectionRejected increments the rejection counter
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

// IncrementWSMessages increments the WebSocket message counter
func IncrementWSMessages(kind string) {
	wsMessagesTotal.WithLabelValues(kind).Inc()
}
