// Package circuitbreaker shields the conversion pipeline from a
// misbehaving terminology server. It wraps sony/gobreaker: lookups go
// through Execute, and ExecuteWithFallback lets the caller answer from
// its local tables while the remote is tripped.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State mirrors the gobreaker state for logging and health reporting.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Config tunes when the breaker trips and how it probes recovery.
type Config struct {
	// Name labels logs, spans and metrics.
	Name string
	// MaxRequests caps the probe requests let through half-open.
	MaxRequests uint32
	// Interval resets the rolling counts while closed.
	Interval time.Duration
	// Timeout is how long an open breaker waits before probing.
	Timeout time.Duration
	// FailureThreshold trips on this many consecutive failures before
	// the MinRequests sample is reached.
	FailureThreshold uint32
	// FailureRatio trips once MinRequests calls have been observed.
	FailureRatio float64
	// MinRequests is the sample size FailureRatio needs.
	MinRequests uint32
}

// DefaultConfig is tuned for code lookups: the HTTP client above the
// breaker times out in seconds, so failures accumulate fast, and a
// lookup that degrades to the static tables costs the caller nothing.
// Trip early, probe again after 20s.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		FailureRatio:     0.5,
		MinRequests:      8,
	}
}

// CircuitBreaker wraps one gobreaker instance with tracing, metrics
// and state-change logging.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *zap.Logger
	tracer trace.Tracer

	requests metric.Int64Counter
	failures metric.Int64Counter
	rejected metric.Int64Counter

	mu    sync.RWMutex
	state State
}

// New creates a breaker.
func New(cfg Config, logger *zap.Logger) (*CircuitBreaker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CircuitBreaker{
		name:   cfg.Name,
		logger: logger,
		tracer: otel.Tracer("circuitbreaker"),
		state:  StateClosed,
	}

	meter := otel.Meter("circuitbreaker")
	for _, inst := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&c.requests, "breaker_requests_total", "Calls attempted through the breaker"},
		{&c.failures, "breaker_failures_total", "Calls that returned an error"},
		{&c.rejected, "breaker_rejected_total", "Calls refused while the breaker was open"},
	} {
		counter, err := meter.Int64Counter(inst.name, metric.WithDescription(inst.desc))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", inst.name, err)
		}
		*inst.dst = counter
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.setState(mapState(from), mapState(to))
		},
	})

	return c, nil
}

// Execute runs fn through the breaker.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	ctx, span := c.tracer.Start(ctx, "breaker_execute",
		trace.WithAttributes(
			attribute.String("breaker", c.name),
			attribute.String("state", string(c.GetState())),
		))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("name", c.name))
	c.requests.Add(ctx, 1, attrs)

	result, err := c.cb.Execute(fn)
	if err != nil {
		if isRejection(err) {
			c.rejected.Add(ctx, 1, attrs)
			span.SetAttributes(attribute.Bool("breaker.open", true))
		} else {
			c.failures.Add(ctx, 1, attrs)
		}
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// ExecuteWithFallback runs fn and answers through fallback while the
// breaker refuses calls. A genuine call error still surfaces to the
// caller; only a rejection (open breaker, half-open overflow) falls
// back.
func (c *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func() (interface{}, error), fallback func(error) (interface{}, error)) (interface{}, error) {
	result, err := c.Execute(ctx, fn)
	if err != nil {
		if isRejection(err) {
			c.logger.Warn("breaker open, answering from fallback",
				zap.String("breaker", c.name),
				zap.Error(err))
			return fallback(err)
		}
		return nil, err
	}
	return result, nil
}

// GetState returns the state as last reported by gobreaker.
func (c *CircuitBreaker) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *CircuitBreaker) setState(from, to State) {
	c.mu.Lock()
	c.state = to
	c.mu.Unlock()

	c.logger.Warn("breaker state changed",
		zap.String("breaker", c.name),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}

func isRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func mapState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
