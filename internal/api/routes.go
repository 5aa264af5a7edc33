package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/school-dashboard/internal/api/handlers"
	"github.com/onnwee/school-dashboard/internal/config"
	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/db"
	"github.com/onnwee/school-dashboard/internal/metrics"
	"github.com/onnwee/school-dashboard/internal/middleware"
	"github.com/onnwee/school-dashboard/internal/respcache"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Manager   *dashboard.Manager
	Queries   *db.Queries
	RespCache respcache.Cache
}

// NewRouter builds the HTTP surface: dashboard reads, admin writes, the
// websocket event stream, and operational endpoints.
func NewRouter(deps Deps) *mux.Router {
	cfg := config.Load()
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&middleware.CORSConfig{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Cache", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.EnableRateLimit {
		limiter := middleware.NewRateLimiter(
			cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst,
			cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst,
		)
		r.Use(limiter.Limit)
	}
	r.Use(requestMetrics)
	r.Use(middleware.Gzip)

	// Operational
	r.HandleFunc("/health", handlers.Health(deps.Queries)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Dashboard reads
	r.HandleFunc("/dashboard", handlers.GetDashboard(deps.Manager, deps.RespCache, cfg.RespCacheTTL)).Methods("GET")
	r.HandleFunc("/dashboard/values/{key}", handlers.GetValue(deps.Manager)).Methods("GET")
	r.HandleFunc("/dashboard/stats", handlers.GetStats(deps.Manager, deps.RespCache)).Methods("GET")

	// Event stream
	r.HandleFunc("/dashboard/events", handlers.Events(deps.Manager)).Methods("GET")

	// Admin writes
	adminOnly := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.AdminAPIToken == "" {
				http.Error(w, "admin token not configured", http.StatusServiceUnavailable)
				return
			}
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix || auth[len(prefix):] != cfg.AdminAPIToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
	r.Handle("/dashboard/invalidate", adminOnly(handlers.PostInvalidate(deps.Manager, deps.RespCache))).Methods("POST")
	r.Handle("/dashboard/refresh/{key}", adminOnly(handlers.PostRefresh(deps.Manager))).Methods("POST")

	return r
}

// statusRecorder captures the response status for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestMetrics counts requests by route template and status. Websocket
// upgrades pass through unwrapped: the upgrader needs the raw writer's
// Hijacker.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}
		metrics.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
	})
}
