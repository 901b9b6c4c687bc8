// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/provider"
)

// debounce absorbs editor write bursts before reloading.
const debounce = 250 * time.Millisecond

// WatchRules watches the rules file and invokes onChange with the freshly
// merged tables after each modification. It blocks until ctx is cancelled.
// The parent directory is watched rather than the file itself so atomic
// rename-style saves keep working.
func WatchRules(ctx context.Context, path string, logger zerolog.Logger, onChange func(map[string]provider.WebsiteRule, map[string]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger = logger.With().Str("component", "rules-watcher").Str("path", path).Logger()
	logger.Info().Msg("watching rules file")

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			rules, aliases, err := LoadRules(path)
			if err != nil {
				logger.Warn().Err(err).Msg("rules reload failed, keeping previous tables")
				continue
			}
			logger.Info().Int("rules", len(rules)).Int("aliases", len(aliases)).Msg("rules reloaded")
			onChange(rules, aliases)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("rules watcher error")
		}
	}
}
