package terminology

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fhirhub/fhirhub/pkg/circuitbreaker"
)

// Remote queries a terminology server and degrades to the static
// tables when the server trips the circuit breaker. An answer from the
// fallback is still an answer: conversion never blocks on terminology.
type Remote struct {
	base    string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	static  *Static
	logger  *zap.Logger
}

// NewRemote builds a remote provider for the given server base URL.
func NewRemote(baseURL string, logger *zap.Logger) (*Remote, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb, err := circuitbreaker.New(circuitbreaker.DefaultConfig("terminology"), logger)
	if err != nil {
		return nil, fmt.Errorf("create breaker: %w", err)
	}
	return &Remote{
		base:    baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		breaker: cb,
		static:  NewStatic(),
		logger:  logger,
	}, nil
}

func (r *Remote) Lookup(ctx context.Context, system, code string) (bool, error) {
	result, err := r.breaker.ExecuteWithFallback(ctx,
		func() (interface{}, error) {
			return r.query(ctx, system, code)
		},
		func(cause error) (interface{}, error) {
			r.logger.Warn("terminology server unavailable, using static tables",
				zap.String("system", system),
				zap.Error(cause))
			return r.static.Lookup(ctx, system, code)
		})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *Remote) SystemName(system string) string {
	return r.static.SystemName(system)
}

// query asks the server whether the code exists. 200 means known, 404
// unknown; anything else counts as a server failure for the breaker.
func (r *Remote) query(ctx context.Context, system, code string) (bool, error) {
	u := fmt.Sprintf("%s/codes?system=%s&code=%s",
		r.base, url.QueryEscape(system), url.QueryEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("terminology server returned %d", resp.StatusCode)
	}
}
