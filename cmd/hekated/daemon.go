// SPDX-License-Identifier: MIT

package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/api"
	"github.com/devKaos117/hekate/internal/config"
	"github.com/devKaos117/hekate/internal/daemon"
	"github.com/devKaos117/hekate/internal/health"
)

// runDaemon starts the HTTP daemon and blocks until ctx is cancelled.
func runDaemon(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) error {
	eng, err := buildEngine(cfg, true)
	if err != nil {
		return err
	}
	eng.watchRules(ctx, cfg)

	hm := health.NewManager(version)
	if eng.redis != nil {
		hm.RegisterChecker(health.NewPingChecker("redis", eng.redis))
	}
	if eng.history != nil {
		hm.RegisterChecker(health.NewCheckFunc("history", func(context.Context) health.CheckResult {
			if err := eng.history.HealthCheck(); err != nil {
				return health.CheckResult{Status: health.StatusUnhealthy, Error: err.Error()}
			}
			return health.CheckResult{Status: health.StatusHealthy}
		}))
	}

	var hist api.History
	if eng.history != nil {
		hist = eng.history
	}

	server := api.New(eng.finder, hist, hm, api.Options{
		RateLimitPerMinute: cfg.API.RateLimit,
		CORSOrigins:        cfg.API.CORSOrigins,
		TracingService:     "hekate",
	})

	dcfg := daemon.DefaultConfig()
	dcfg.ListenAddr = cfg.Listen
	dcfg.MetricsAddr = cfg.MetricsListen

	manager, err := daemon.NewManager(dcfg, server.Handler(), promhttp.Handler(), logger)
	if err != nil {
		eng.close()
		return err
	}

	manager.RegisterShutdownHook("engine", func(context.Context) error {
		eng.close()
		return nil
	})

	return manager.Start(ctx)
}
