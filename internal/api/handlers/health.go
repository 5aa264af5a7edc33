package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/school-dashboard/internal/db"
)

// Health reports liveness plus database reachability. The database check has
// its own short timeout so a slow Postgres cannot hang the probe.
func Health(q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "ok"

		if q != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := q.Ping(ctx); err != nil {
				status = "degraded"
				dbStatus = "unreachable"
			}
		} else {
			dbStatus = "not configured"
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":   status,
			"database": dbStatus,
		})
	}
}
