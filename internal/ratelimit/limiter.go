// SPDX-License-Identifier: MIT

// Package ratelimit throttles outbound lookup traffic so scraping stays
// polite towards upstream sites.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config holds outbound rate limiting configuration.
type Config struct {
	// Global limits across all hosts
	GlobalRate  rate.Limit // requests per second
	GlobalBurst int        // max burst size

	// Per-host limits
	PerHostRate  rate.Limit
	PerHostBurst int
}

// DefaultConfig returns sensible defaults for scraping public sites.
func DefaultConfig() Config {
	return Config{
		GlobalRate:  10,
		GlobalBurst: 20,

		PerHostRate:  2,
		PerHostBurst: 4,
	}
}

// Limiter enforces a global and a per-host outbound request budget.
type Limiter struct {
	config Config

	global  *rate.Limiter
	perHost map[string]*rate.Limiter
	mu      sync.Mutex
}

// New creates a new outbound limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{
		config:  config,
		global:  rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perHost: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed, or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	if err := l.global.Wait(ctx); err != nil {
		return err
	}
	return l.hostLimiter(host).Wait(ctx)
}

// Allow reports whether a request to host may proceed right now.
func (l *Limiter) Allow(host string) bool {
	if !l.global.Allow() {
		return false
	}
	return l.hostLimiter(host).Allow()
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.perHost[host]
	if !exists {
		limiter = rate.NewLimiter(l.config.PerHostRate, l.config.PerHostBurst)
		l.perHost[host] = limiter
	}
	return limiter
}
