package circuitbreaker

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
)

func TestBreakerTripsOnConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("lookup")
	cfg.FailureThreshold = 2
	cb, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	down := errors.New("server down")
	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, down
		}); !errors.Is(err, down) {
			t.Fatalf("expected the call error, got %v", err)
		}
	}

	if cb.GetState() != StateOpen {
		t.Fatalf("expected the breaker to open, state %s", cb.GetState())
	}
	if _, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return true, nil
	}); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("an open breaker must reject calls, got %v", err)
	}
}

func TestBreakerFallbackWhileOpen(t *testing.T) {
	cfg := DefaultConfig("lookup")
	cfg.FailureThreshold = 1
	cb, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, errors.New("server down")
	})
	if cb.GetState() != StateOpen {
		t.Fatalf("expected the breaker to open, state %s", cb.GetState())
	}

	got, err := cb.ExecuteWithFallback(context.Background(),
		func() (interface{}, error) { return "remote", nil },
		func(cause error) (interface{}, error) { return "local", nil })
	if err != nil {
		t.Fatal(err)
	}
	if got != "local" {
		t.Errorf("expected the fallback answer, got %v", got)
	}
}

func TestBreakerGenuineErrorSurfaces(t *testing.T) {
	cb, err := New(DefaultConfig("lookup"), nil)
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("bad gateway")
	if _, err := cb.ExecuteWithFallback(context.Background(),
		func() (interface{}, error) { return nil, boom },
		func(error) (interface{}, error) { return "local", nil }); !errors.Is(err, boom) {
		t.Errorf("a closed breaker must surface the call error, got %v", err)
	}
}

func TestBreakerPassesResultsThrough(t *testing.T) {
	cb, err := New(DefaultConfig("lookup"), nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("a successful call must leave the breaker closed, state %s", cb.GetState())
	}
}
