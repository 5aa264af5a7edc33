package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/onnwee/school-dashboard/internal/apierr"
	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/respcache"
)

// snapshotCacheKey is the response-cache key for the full dashboard payload.
const snapshotCacheKey = "dashboard:snapshot"

// keyView is one key's entry in the snapshot response.
type keyView struct {
	Value      dashboard.Value     `json:"value,omitempty"`
	State      dashboard.DataState `json:"state"`
	AgeSeconds float64             `json:"age_seconds,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// snapshotResponse is the full dashboard payload.
type snapshotResponse struct {
	Data        map[string]keyView `json:"data"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// buildSnapshot assembles the per-key view. Reads go through Manager.Get so
// misses and staleness schedule background fetches as a side effect.
func buildSnapshot(m *dashboard.Manager) snapshotResponse {
	now := time.Now()
	resp := snapshotResponse{
		Data:        make(map[string]keyView),
		GeneratedAt: now,
	}
	for _, key := range m.Keys() {
		value, ok := m.Get(key, false)
		view := keyView{State: dashboard.StateLoading}
		if entry, found := m.Peek(key); found {
			view.State = entry.State
			view.AgeSeconds = entry.Age(now).Seconds()
			view.Error = entry.ErrorMessage
			// An error entry may still carry its last good value.
			if ok || entry.State == dashboard.StateError {
				view.Value = entry.Value
			}
		}
		if ok {
			view.Value = value
		}
		resp.Data[key] = view
	}
	return resp
}

// GetDashboard serves the full snapshot, caching the serialized payload so a
// dashboard with many viewers does not re-encode it per request.
func GetDashboard(m *dashboard.Manager, cache respcache.Cache, cacheTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cache != nil {
			if body, found := cache.Get(snapshotCacheKey); found {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				_, _ = w.Write(body)
				return
			}
		}

		body, err := json.Marshal(buildSnapshot(m))
		if err != nil {
			apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
			return
		}
		if cache != nil {
			cache.Set(snapshotCacheKey, body, cacheTTL)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "MISS")
		_, _ = w.Write(body)
	}
}

// valueResponse is the single-key payload.
type valueResponse struct {
	Key         string              `json:"key"`
	Value       dashboard.Value     `json:"value,omitempty"`
	State       dashboard.DataState `json:"state"`
	AgeSeconds  float64             `json:"age_seconds,omitempty"`
	TTLSeconds  float64             `json:"ttl_seconds"`
	Description string              `json:"description,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// GetValue serves one data key. Unknown keys are 404; known keys with no
// cached value yet return 202 with state "loading" while a fetch runs.
func GetValue(m *dashboard.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["key"]
		desc, registered := m.Describe(key)
		if !registered {
			apierr.WriteErrorWithContext(w, r, apierr.DashKeyUnknown(key))
			return
		}

		value, ok := m.Get(key, r.URL.Query().Get("refresh") == "true")
		resp := valueResponse{
			Key:         key,
			State:       dashboard.StateLoading,
			TTLSeconds:  desc.TTL.Seconds(),
			Description: desc.Description,
		}
		if entry, found := m.Peek(key); found {
			resp.State = entry.State
			resp.AgeSeconds = entry.Age(time.Now()).Seconds()
			resp.Error = entry.ErrorMessage
		}
		if ok {
			resp.Value = value
		}

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusAccepted)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// statsResponse bundles manager counters with cache diagnostics.
type statsResponse struct {
	Performance dashboard.PerformanceStats `json:"performance"`
	Cache       dashboard.CacheInfo        `json:"cache"`
	Responses   *respcache.Stats           `json:"response_cache,omitempty"`
}

// GetStats serves the performance counters and cache diagnostics.
func GetStats(m *dashboard.Manager, cache respcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statsResponse{
			Performance: m.Stats(),
			Cache:       m.CacheInfo(),
		}
		if cache != nil {
			stats := cache.Stats()
			resp.Responses = &stats
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
