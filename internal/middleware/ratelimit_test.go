package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterGlobalLimit(t *testing.T) {
	// Global bucket of 2 with no refill to speak of within the test.
	rl := NewRateLimiter(0.001, 2, 1000, 1000)
	defer rl.Stop()
	handler := rl.Limit(okHandler())

	statuses := make([]int, 3)
	for i := range statuses {
		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		statuses[i] = rr.Code
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first two requests = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", statuses[2])
	}
}

func TestRateLimiterPerIPLimit(t *testing.T) {
	rl := NewRateLimiter(1000, 1000, 0.001, 1)
	defer rl.Stop()
	handler := rl.Limit(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest("GET", "/dashboard", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := send("10.0.0.1:1234"); got != http.StatusOK {
		t.Fatalf("first request from IP = %d, want 200", got)
	}
	if got := send("10.0.0.1:5678"); got != http.StatusTooManyRequests {
		t.Errorf("second request from same IP = %d, want 429", got)
	}
	// A different client has its own bucket.
	if got := send("10.0.0.2:1234"); got != http.StatusOK {
		t.Errorf("request from other IP = %d, want 200", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.7:4321",
			want:       "192.0.2.7",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for chain takes first hop",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9,10.0.0.2,10.0.0.3"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			want:       "198.51.100.4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/dashboard", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterReusesPerIPBucket(t *testing.T) {
	rl := NewRateLimiter(1000, 1000, 5, 5)
	defer rl.Stop()

	a := rl.getLimiter("10.0.0.1")
	b := rl.getLimiter("10.0.0.1")
	if a != b {
		t.Error("same IP should map to the same limiter")
	}
	if c := rl.getLimiter("10.0.0.2"); c == a {
		t.Error("different IPs should not share a limiter")
	}
}
