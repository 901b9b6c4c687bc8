// SPDX-License-Identifier: MIT

// Package history persists lookup results so past checks can be queried
// after the fact.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/devKaos117/hekate/internal/provider"
)

const (
	latestPrefix = "latest:"
	histPrefix   = "hist:"
)

// Store is a badger-backed history of lookup results. Each result is written
// twice: under a stable "latest" key and under a timestamped history key.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
	ttl    time.Duration
}

// Options configures the history store.
type Options struct {
	// Dir is the badger data directory. Empty means in-memory, used by tests.
	Dir string
	// TTL bounds how long timestamped entries live. Zero keeps them forever.
	TTL time.Duration
}

// Open creates or opens the history database.
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Dir).
		WithLogger(nil).
		WithInMemory(opts.Dir == "")

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With().Str("component", "history").Logger(),
		ttl:    opts.TTL,
	}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a lookup result for the software.
func (s *Store) Record(result *provider.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	key := normalizeKey(result.Software)
	ts := result.CheckedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(latestPrefix+key), data); err != nil {
			return err
		}

		histEntry := badger.NewEntry(
			[]byte(fmt.Sprintf("%s%s:%s", histPrefix, key, ts.UTC().Format(time.RFC3339Nano))),
			data,
		)
		if s.ttl > 0 {
			histEntry = histEntry.WithTTL(s.ttl)
		}
		return txn.SetEntry(histEntry)
	})
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Latest returns the most recent result for the software, or nil when the
// software was never checked.
func (s *Store) Latest(software string) (*provider.Result, error) {
	var result *provider.Result

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestPrefix + normalizeKey(software)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var r provider.Result
			if err := json.Unmarshal(val, &r); err != nil {
				return err
			}
			result = &r
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest: %w", err)
	}
	return result, nil
}

// Recent returns up to n past results for the software, newest first.
func (s *Store) Recent(software string, n int) ([]*provider.Result, error) {
	prefix := []byte(histPrefix + normalizeKey(software) + ":")

	var results []*provider.Result
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration needs a seek key past the whole prefix range.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(results) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var r provider.Result
				if err := json.Unmarshal(val, &r); err != nil {
					return err
				}
				results = append(results, &r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return results, nil
}

// HealthCheck verifies the database accepts reads.
func (s *Store) HealthCheck() error {
	return s.db.View(func(*badger.Txn) error { return nil })
}

func normalizeKey(software string) string {
	return strings.ToLower(strings.TrimSpace(software))
}
