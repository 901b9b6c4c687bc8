// SPDX-License-Identifier: MIT

// Package finder orchestrates the lookup providers: it fans a request out to
// every provider that can handle the software, merges the answers and caches
// the outcome.
package finder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/devKaos117/hekate/internal/cache"
	"github.com/devKaos117/hekate/internal/metrics"
	"github.com/devKaos117/hekate/internal/provider"
	"github.com/devKaos117/hekate/internal/version"
)

// ErrNotFound is returned when no provider could produce version information.
var ErrNotFound = errors.New("no provider found version information")

// Recorder persists lookup results. The history store implements it.
type Recorder interface {
	Record(*provider.Result) error
}

// Options configures a Finder.
type Options struct {
	// CacheTTL bounds how long a merged result is served from cache.
	CacheTTL time.Duration
	// Concurrency limits how many providers run at once. Zero means all.
	Concurrency int
}

// DefaultOptions returns the stock finder configuration.
func DefaultOptions() Options {
	return Options{
		CacheTTL:    time.Hour,
		Concurrency: 3,
	}
}

// Finder resolves the latest version of a piece of software.
type Finder struct {
	providers []provider.Provider
	cache     cache.Cache
	recorder  Recorder
	logger    zerolog.Logger
	opts      Options
}

// New creates a Finder. cache may be a no-op cache; recorder may be nil to
// skip history.
func New(providers []provider.Provider, c cache.Cache, recorder Recorder, logger zerolog.Logger, opts Options) *Finder {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	return &Finder{
		providers: providers,
		cache:     c,
		recorder:  recorder,
		logger:    logger.With().Str("component", "finder").Logger(),
		opts:      opts,
	}
}

// Providers returns the names of the configured providers, in priority order.
func (f *Finder) Providers() []string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return names
}

// FindLatest resolves the latest version of software. currentVersion may be
// empty; when set, the result reports whether an update is available.
func (f *Finder) FindLatest(ctx context.Context, software, currentVersion string) (*provider.Result, error) {
	start := time.Now()

	if cached := f.fromCache(software, currentVersion); cached != nil {
		metrics.RecordLookup("cached", time.Since(start).Seconds())
		return cached, nil
	}

	results, err := f.collect(ctx, software)
	if err != nil {
		metrics.RecordLookup("error", time.Since(start).Seconds())
		return nil, err
	}
	if len(results) == 0 {
		metrics.RecordLookup("not_found", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w for %q", ErrNotFound, software)
	}

	result := merge(results)
	result.Software = software
	result.CurrentVersion = currentVersion
	result.UpdateFound = version.IsNewer(currentVersion, result.LatestVersion)
	result.CheckedAt = time.Now().UTC()

	f.store(result)

	metrics.RecordLookup("found", time.Since(start).Seconds())
	if result.UpdateFound {
		metrics.IncUpdateFound()
	}

	f.logger.Info().
		Str("event", "lookup.completed").
		Str("software", software).
		Str("latest_version", result.LatestVersion).
		Str("method", result.Method).
		Bool("update_found", result.UpdateFound).
		Dur("duration", time.Since(start)).
		Msg("version lookup completed")

	return result, nil
}

// collect runs every capable provider concurrently and gathers the answers
// in provider priority order.
func (f *Finder) collect(ctx context.Context, software string) ([]*provider.Result, error) {
	capable := make([]provider.Provider, 0, len(f.providers))
	for _, p := range f.providers {
		if p.CanHandle(software) {
			capable = append(capable, p)
		}
	}
	if len(capable) == 0 {
		return nil, nil
	}

	slots := make([]*provider.Result, len(capable))

	g, ctx := errgroup.WithContext(ctx)
	if f.opts.Concurrency > 0 {
		g.SetLimit(f.opts.Concurrency)
	}

	for i, p := range capable {
		g.Go(func() error {
			pStart := time.Now()
			result, err := p.Lookup(ctx, software)
			elapsed := time.Since(pStart).Seconds()

			switch {
			case err == nil:
				metrics.RecordProviderLookup(p.Name(), "success", elapsed)
				slots[i] = result
			case errors.Is(err, provider.ErrNoVersion):
				metrics.RecordProviderLookup(p.Name(), "empty", elapsed)
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				metrics.RecordProviderLookup(p.Name(), "error", elapsed)
				f.logger.Warn().
					Err(err).
					Str("provider", p.Name()).
					Str("software", software).
					Msg("provider lookup failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*provider.Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results, nil
}

// merge picks the answer with the highest version. Ties go to the earlier
// provider, whose result tends to carry richer metadata. Download URL and
// release date are backfilled from other answers when the winner lacks them.
func merge(results []*provider.Result) *provider.Result {
	best := results[0]
	for _, r := range results[1:] {
		if version.Compare(r.LatestVersion, best.LatestVersion) > 0 {
			best = r
		}
	}

	merged := *best
	for _, r := range results {
		if merged.DownloadURL == "" {
			merged.DownloadURL = r.DownloadURL
		}
		if merged.ReleaseDate == "" {
			merged.ReleaseDate = r.ReleaseDate
		}
		if merged.SourceURL == "" {
			merged.SourceURL = r.SourceURL
		}
	}
	return &merged
}

func (f *Finder) fromCache(software, currentVersion string) *provider.Result {
	data, ok := f.cache.Get(cacheKey(software))
	if !ok {
		return nil
	}

	var result provider.Result
	if err := json.Unmarshal(data, &result); err != nil {
		f.logger.Warn().Err(err).Str("software", software).Msg("discarding corrupt cache entry")
		f.cache.Delete(cacheKey(software))
		return nil
	}

	// Recompute against the caller's installed version; the cached entry may
	// have been produced for a different one.
	result.CurrentVersion = currentVersion
	result.UpdateFound = version.IsNewer(currentVersion, result.LatestVersion)
	return &result
}

func (f *Finder) store(result *provider.Result) {
	data, err := json.Marshal(result)
	if err == nil {
		f.cache.Set(cacheKey(result.Software), data, f.opts.CacheTTL)
	}

	if f.recorder != nil {
		if err := f.recorder.Record(result); err != nil {
			f.logger.Warn().Err(err).Str("software", result.Software).Msg("recording lookup history failed")
		}
	}
}

func cacheKey(software string) string {
	return "version:" + strings.ToLower(strings.TrimSpace(software))
}
