// Package terminology validates coding systems and codes against a
// terminology source. Deployments without a terminology server run in
// static mode against the embedded French national registries; remote
// mode queries a server and falls back to the static tables when the
// server is unreachable.
package terminology

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Provider answers code validity questions.
type Provider interface {
	// Lookup reports whether the code is known to the given system.
	Lookup(ctx context.Context, system, code string) (bool, error)

	// SystemName returns a human-readable name for a coding system
	// URI, or "" when the system is unknown.
	SystemName(system string) string
}

// Mode selects the provider implementation.
type Mode string

const (
	ModeStatic Mode = "static"
	ModeRemote Mode = "remote"
)

// Config holds provider configuration. The mode is fixed at
// construction; callers needing both wire two providers.
type Config struct {
	Mode Mode
	// BaseURL is the terminology server address, remote mode only.
	BaseURL string
}

// New builds the provider for the configured mode.
func New(cfg Config, logger *zap.Logger) (Provider, error) {
	switch cfg.Mode {
	case ModeStatic, "":
		return NewStatic(), nil
	case ModeRemote:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("remote terminology mode requires a base URL")
		}
		return NewRemote(cfg.BaseURL, logger)
	default:
		return nil, fmt.Errorf("unknown terminology mode %q", cfg.Mode)
	}
}
