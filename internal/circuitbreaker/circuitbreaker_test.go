package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errDown = errors.New("database unreachable")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New(Config{Name: "test-open", FailureThreshold: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		if err := b.Call(func() error { return errDown }); !errors.Is(err, errDown) {
			t.Fatalf("call %d: got %v, want errDown", i, err)
		}
	}
	if got := b.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want StateOpen", got)
	}
	if err := b.Call(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("open breaker returned %v, want ErrOpen", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New(Config{Name: "test-reset", FailureThreshold: 2})

	b.Call(func() error { return errDown })
	b.Call(func() error { return nil })
	b.Call(func() error { return errDown })

	if got := b.GetState(); got != StateClosed {
		t.Fatalf("state = %v, want StateClosed", got)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New(Config{
		Name:             "test-recovery",
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})

	b.Call(func() error { return errDown })
	if got := b.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want StateOpen", got)
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Call(func() error { return nil }); err != nil {
		t.Fatalf("probe call: %v", err)
	}
	if got := b.GetState(); got != StateHalfOpen {
		t.Fatalf("state = %v, want StateHalfOpen after one success", got)
	}
	if err := b.Call(func() error { return nil }); err != nil {
		t.Fatalf("second probe call: %v", err)
	}
	if got := b.GetState(); got != StateClosed {
		t.Fatalf("state = %v, want StateClosed after recovery", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{
		Name:             "test-reopen",
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	b.Call(func() error { return errDown })
	time.Sleep(20 * time.Millisecond)

	if err := b.Call(func() error { return errDown }); !errors.Is(err, errDown) {
		t.Fatalf("probe call: got %v, want errDown", err)
	}
	if got := b.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want StateOpen after failed probe", got)
	}
	if err := b.Call(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("got %v, want ErrOpen", err)
	}
}
