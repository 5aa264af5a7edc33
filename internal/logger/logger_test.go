package logger

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGetInitializesDefault(t *testing.T) {
	defaultLogger = nil
	if Get() == nil {
		t.Fatal("Get returned nil logger")
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "abc123")
	if WithRequestID(ctx) == nil {
		t.Fatal("expected logger with request id")
	}
	// Context without a request ID falls back to the default logger
	if WithRequestID(context.Background()) == nil {
		t.Fatal("expected default logger")
	}
}

func TestWithComponent(t *testing.T) {
	if WithComponent("scheduler") == nil {
		t.Fatal("expected component logger")
	}
}
