// SPDX-License-Identifier: MIT

// Package provider implements the lookup strategies that discover the latest
// released version of a piece of software from public web sources.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrNoVersion is returned when a provider handled the software but could
// not find any version information.
var ErrNoVersion = errors.New("no version information found")

// Result is the outcome of a version lookup.
type Result struct {
	Software       string    `json:"software"`
	CurrentVersion string    `json:"current_version,omitempty"`
	LatestVersion  string    `json:"latest_version"`
	UpdateFound    bool      `json:"update_found"`
	SourceURL      string    `json:"source_url,omitempty"`
	DownloadURL    string    `json:"download_url,omitempty"`
	ReleaseDate    string    `json:"release_date,omitempty"`
	Method         string    `json:"method"`
	CheckedAt      time.Time `json:"checked_at"`
}

// Provider is a single lookup strategy.
type Provider interface {
	// Name identifies the provider in config, logs and results.
	Name() string
	// CanHandle reports whether this provider knows how to look up the
	// given software.
	CanHandle(software string) bool
	// Lookup finds the latest version of the software. It returns
	// ErrNoVersion when the source yielded nothing usable.
	Lookup(ctx context.Context, software string) (*Result, error)
}
