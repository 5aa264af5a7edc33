package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onnwee/school-dashboard/internal/apierr"
	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/respcache"
)

type invalidateRequest struct {
	Key string `json:"key"`
}

// PostInvalidate drops cached entries. An empty or missing key invalidates
// everything. The serialized snapshot is dropped too so the next dashboard
// read rebuilds from the data cache.
func PostInvalidate(m *dashboard.Manager, cache respcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invalidateRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidJSON())
				return
			}
		}

		if req.Key == "" {
			m.InvalidateAll()
		} else {
			if _, registered := m.Describe(req.Key); !registered {
				apierr.WriteErrorWithContext(w, r, apierr.DashKeyUnknown(req.Key))
				return
			}
			m.Invalidate(req.Key)
		}
		if cache != nil {
			cache.Delete(snapshotCacheKey)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "invalidated"})
	}
}

// PostRefresh schedules an immediate background fetch for one key. 429 means
// the worker pool is full or a fetch for the key is already in flight.
func PostRefresh(m *dashboard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		if _, registered := m.Describe(key); !registered {
			apierr.WriteErrorWithContext(w, r, apierr.DashKeyUnknown(key))
			return
		}

		if !m.Refresh(key) {
			apierr.WriteErrorWithContext(w, r, apierr.DashFetchRejected(key))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "scheduled", "key": key})
	}
}
