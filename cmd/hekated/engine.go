// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/devKaos117/hekate/internal/cache"
	"github.com/devKaos117/hekate/internal/config"
	"github.com/devKaos117/hekate/internal/finder"
	"github.com/devKaos117/hekate/internal/history"
	"github.com/devKaos117/hekate/internal/httpx"
	"github.com/devKaos117/hekate/internal/log"
	"github.com/devKaos117/hekate/internal/provider"
	"github.com/devKaos117/hekate/internal/ratelimit"
)

// engine bundles the lookup pipeline with the resources it owns.
type engine struct {
	finder  *finder.Finder
	website *provider.WebsiteProvider
	history *history.Store
	redis   *cache.RedisCache
	logger  zerolog.Logger
}

// buildEngine wires the outbound client, providers, cache and history store
// from the loaded configuration. withHistory is false for one-shot commands
// that should not touch the history database.
func buildEngine(cfg config.AppConfig, withHistory bool) (*engine, error) {
	logger := log.WithComponent("engine")

	limiter := ratelimit.New(ratelimit.Config{
		GlobalRate:   rate.Limit(cfg.RateLimit.GlobalRate),
		GlobalBurst:  cfg.RateLimit.GlobalBurst,
		PerHostRate:  rate.Limit(cfg.RateLimit.PerHostRate),
		PerHostBurst: cfg.RateLimit.PerHostBurst,
	})

	httpOpts := httpx.DefaultOptions()
	httpOpts.Timeout = cfg.HTTP.Timeout
	httpOpts.MaxRetries = cfg.HTTP.MaxRetries
	httpOpts.RandomizeAgent = cfg.HTTP.RandomizeAgent
	client := httpx.New(httpOpts, limiter, log.WithComponent("httpx"))

	rules, aliases, err := config.LoadRules(cfg.Lookup.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	providers := provider.Build(provider.RegistryConfig{
		Methods:        cfg.Lookup.Methods,
		WikipediaLangs: cfg.Lookup.WikipediaLangs,
		WebsiteRules:   rules,
		Aliases:        aliases,
	}, client, log.WithComponent("provider"))
	if len(providers) == 0 {
		return nil, fmt.Errorf("no usable lookup methods configured")
	}

	eng := &engine{logger: logger}
	for _, p := range providers {
		if wp, ok := p.(*provider.WebsiteProvider); ok {
			eng.website = wp
		}
	}

	var resultCache cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, log.WithComponent("cache"))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		eng.redis = redisCache
		resultCache = redisCache
	case "none":
		resultCache = cache.NewNoOpCache()
	default:
		resultCache = cache.NewMemoryCache(5 * time.Minute)
	}

	var recorder finder.Recorder
	if withHistory {
		store, err := history.Open(history.Options{
			Dir: cfg.History.Dir,
			TTL: cfg.History.TTL,
		}, logger)
		if err != nil {
			eng.close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		eng.history = store
		recorder = store
	}

	eng.finder = finder.New(providers, resultCache, recorder, log.Base(), finder.Options{
		CacheTTL:    cfg.Cache.TTL,
		Concurrency: cfg.Lookup.Concurrency,
	})

	return eng, nil
}

// watchRules hot-reloads the website rule tables while ctx lives, on file
// change and on SIGHUP. No-op when no rules file is configured or the
// website provider is disabled.
func (e *engine) watchRules(ctx context.Context, cfg config.AppConfig) {
	if cfg.Lookup.RulesFile == "" || e.website == nil {
		return
	}

	go func() {
		err := config.WatchRules(ctx, cfg.Lookup.RulesFile, e.logger,
			func(rules map[string]provider.WebsiteRule, aliases map[string]string) {
				e.website.UpdateRules(rules, aliases)
			})
		if err != nil && ctx.Err() == nil {
			e.logger.Warn().Err(err).Msg("rules watcher stopped")
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				rules, aliases, err := config.LoadRules(cfg.Lookup.RulesFile)
				if err != nil {
					e.logger.Warn().Err(err).Msg("SIGHUP rules reload failed, keeping previous tables")
					continue
				}
				e.website.UpdateRules(rules, aliases)
				e.logger.Info().Int("rules", len(rules)).Msg("rules reloaded on SIGHUP")
			}
		}
	}()
}

func (e *engine) close() {
	if e.history != nil {
		if err := e.history.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("closing history store failed")
		}
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("closing redis connection failed")
		}
	}
}
