package apierr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/school-dashboard/internal/logger"
)

func TestNew(t *testing.T) {
	err := New(ErrSystemTimeout, "timeout occurred", http.StatusRequestTimeout)
	if err.Code != ErrSystemTimeout {
		t.Errorf("expected code %s, got %s", ErrSystemTimeout, err.Code)
	}
	if err.Message != "timeout occurred" {
		t.Errorf("expected message 'timeout occurred', got '%s'", err.Message)
	}
	if err.Status() != http.StatusRequestTimeout {
		t.Errorf("expected status %d, got %d", http.StatusRequestTimeout, err.Status())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrValidationInvalidValue, "invalid field", http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": "ttl_seconds"})

	if err.Details == nil {
		t.Fatal("expected details to be set")
	}
	if field, ok := err.Details["field"]; !ok || field != "ttl_seconds" {
		t.Errorf("expected field 'ttl_seconds', got %v", field)
	}
}

func TestWithRequestID(t *testing.T) {
	requestID := "test-request-123"
	err := New(ErrSystemInternal, "internal error", http.StatusInternalServerError).
		WithRequestID(requestID)

	if err.RequestID != requestID {
		t.Errorf("expected request ID %s, got %s", requestID, err.RequestID)
	}
}

func TestErrorInterface(t *testing.T) {
	err := New(ErrAuthInvalid, "invalid token", http.StatusUnauthorized)
	expected := "AUTH_INVALID: invalid token"
	if err.Error() != expected {
		t.Errorf("expected error string %s, got %s", expected, err.Error())
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	err := New(ErrDashFetchFailed, "fetch failed", http.StatusBadGateway).
		WithRequestID("req-123")

	WriteError(w, err)

	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Error == nil {
		t.Fatal("expected error in response")
	}
	if resp.Error.Code != ErrDashFetchFailed {
		t.Errorf("expected code %s, got %s", ErrDashFetchFailed, resp.Error.Code)
	}
	if resp.Error.Message != "fetch failed" {
		t.Errorf("expected message 'fetch failed', got '%s'", resp.Error.Message)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("expected request ID 'req-123', got '%s'", resp.Error.RequestID)
	}
}

func TestDashHelpers(t *testing.T) {
	if err := DashKeyUnknown("bogus_key"); err.Status() != http.StatusNotFound {
		t.Errorf("DashKeyUnknown status = %d", err.Status())
	}
	if err := DashNoData("total_students_count"); err.Status() != http.StatusAccepted {
		t.Errorf("DashNoData status = %d", err.Status())
	}
	if err := DashFetchRejected("k"); err.Status() != http.StatusTooManyRequests {
		t.Errorf("DashFetchRejected status = %d", err.Status())
	}
	err := DashKeyUnknown("bogus_key")
	if key, ok := err.Details["data_key"]; !ok || key != "bogus_key" {
		t.Errorf("expected data_key detail, got %v", err.Details)
	}
}

func TestHelperDefaults(t *testing.T) {
	cases := []struct {
		err    *Error
		code   ErrorCode
		status int
	}{
		{AuthMissing(""), ErrAuthMissing, http.StatusUnauthorized},
		{AuthInvalid(""), ErrAuthInvalid, http.StatusUnauthorized},
		{AuthForbidden(""), ErrAuthForbidden, http.StatusForbidden},
		{DashFetchFailed(""), ErrDashFetchFailed, http.StatusBadGateway},
		{SystemInternal(""), ErrSystemInternal, http.StatusInternalServerError},
		{SystemDatabase(""), ErrSystemDatabase, http.StatusInternalServerError},
		{SystemUnavailable(""), ErrSystemUnavailable, http.StatusServiceUnavailable},
		{SystemTimeout(""), ErrSystemTimeout, http.StatusRequestTimeout},
		{ValidationInvalidJSON(), ErrValidationInvalidJSON, http.StatusBadRequest},
		{ValidationMissingField("key"), ErrValidationMissingField, http.StatusBadRequest},
		{ResourceNotFound("Snapshot"), ErrResourceNotFound, http.StatusNotFound},
		{RateLimitGlobal(), ErrRateLimitGlobal, http.StatusTooManyRequests},
		{RateLimitIP(), ErrRateLimitIP, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("code = %s, want %s", tc.err.Code, tc.code)
		}
		if tc.err.Status() != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.code, tc.err.Status(), tc.status)
		}
		if tc.err.Message == "" {
			t.Errorf("%s: empty default message", tc.code)
		}
	}
}

func TestWriteErrorWithContext(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	ctx := context.WithValue(r.Context(), logger.RequestIDKey, "ctx-req-9")
	r = r.WithContext(ctx)

	WriteErrorWithContext(w, r, SystemInternal(""))

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.RequestID != "ctx-req-9" {
		t.Errorf("request ID = %q, want ctx-req-9", resp.Error.RequestID)
	}
}
