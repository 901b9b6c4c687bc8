// SPDX-License-Identifier: MIT

// Package report runs batch update checks over a software inventory and
// writes the outcome as a JSON report.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/devKaos117/hekate/internal/finder"
	"github.com/devKaos117/hekate/internal/provider"
)

// Item is one piece of software to check.
type Item struct {
	Name           string `yaml:"name" json:"name"`
	CurrentVersion string `yaml:"current_version,omitempty" json:"current_version,omitempty"`
}

// Inventory is the on-disk list of software to check.
type Inventory struct {
	Software []Item `yaml:"software"`
}

// LoadInventory reads a YAML inventory file.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory: %w", err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	if len(inv.Software) == 0 {
		return nil, fmt.Errorf("inventory %s lists no software", path)
	}
	for i, item := range inv.Software {
		if item.Name == "" {
			return nil, fmt.Errorf("inventory %s: entry %d has no name", path, i)
		}
	}
	return &inv, nil
}

// Entry is the outcome of checking one inventory item.
type Entry struct {
	*provider.Result
	Error string `json:"error,omitempty"`
}

// Report is a completed batch check.
type Report struct {
	GeneratedAt  time.Time `json:"generated_at"`
	Checked      int       `json:"checked"`
	UpdatesFound int       `json:"updates_found"`
	Failures     int       `json:"failures"`
	Entries      []Entry   `json:"entries"`
}

// Runner executes batch checks.
type Runner struct {
	finder *finder.Finder
	logger zerolog.Logger
}

// NewRunner creates a batch check runner.
func NewRunner(f *finder.Finder, logger zerolog.Logger) *Runner {
	return &Runner{
		finder: f,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// Run checks every inventory item sequentially. Individual failures are
// recorded in the report rather than aborting the batch; only context
// cancellation stops the run.
func (r *Runner) Run(ctx context.Context, inv *Inventory) (*Report, error) {
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Entries:     make([]Entry, 0, len(inv.Software)),
	}

	for _, item := range inv.Software {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result, err := r.finder.FindLatest(ctx, item.Name, item.CurrentVersion)
		report.Checked++

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.Failures++
			report.Entries = append(report.Entries, Entry{
				Result: &provider.Result{Software: item.Name, CurrentVersion: item.CurrentVersion},
				Error:  err.Error(),
			})
			r.logger.Warn().Err(err).Str("software", item.Name).Msg("batch check failed for item")
			continue
		}

		if result.UpdateFound {
			report.UpdatesFound++
		}
		report.Entries = append(report.Entries, Entry{Result: result})
	}

	r.logger.Info().
		Str("event", "report.completed").
		Int("checked", report.Checked).
		Int("updates_found", report.UpdatesFound).
		Int("failures", report.Failures).
		Msg("batch check completed")

	return report, nil
}

// Write stores the report as indented JSON at path. The write is atomic so
// a crash never leaves a truncated report behind.
func (r *Report) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
