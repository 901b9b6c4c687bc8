// SPDX-License-Identifier: MIT

package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devKaos117/hekate/internal/cache"
	"github.com/devKaos117/hekate/internal/finder"
	"github.com/devKaos117/hekate/internal/log"
	"github.com/devKaos117/hekate/internal/provider"
)

type fakeProvider struct {
	versions map[string]string
}

func (f *fakeProvider) Name() string          { return "fake" }
func (f *fakeProvider) CanHandle(string) bool { return true }
func (f *fakeProvider) Lookup(_ context.Context, software string) (*provider.Result, error) {
	v, ok := f.versions[software]
	if !ok {
		return nil, provider.ErrNoVersion
	}
	return &provider.Result{Software: software, LatestVersion: v, Method: "fake"}, nil
}

func newRunner(t *testing.T, versions map[string]string) *Runner {
	t.Helper()
	f := finder.New(
		[]provider.Provider{&fakeProvider{versions: versions}},
		cache.NewNoOpCache(),
		nil,
		log.WithComponent("report-test"),
		finder.DefaultOptions(),
	)
	return NewRunner(f, log.WithComponent("report-test"))
}

func TestLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "software.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
software:
  - name: firefox
    current_version: "127.0"
  - name: vlc
`), 0o600))

	inv, err := LoadInventory(path)
	require.NoError(t, err)
	require.Len(t, inv.Software, 2)
	assert.Equal(t, "firefox", inv.Software[0].Name)
	assert.Equal(t, "127.0", inv.Software[0].CurrentVersion)
	assert.Empty(t, inv.Software[1].CurrentVersion)
}

func TestLoadInventoryRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "software.yaml")
	require.NoError(t, os.WriteFile(path, []byte("software: []\n"), 0o600))

	_, err := LoadInventory(path)
	assert.Error(t, err)
}

func TestLoadInventoryRejectsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "software.yaml")
	require.NoError(t, os.WriteFile(path, []byte("software:\n  - current_version: \"1.0\"\n"), 0o600))

	_, err := LoadInventory(path)
	assert.Error(t, err)
}

func TestRunCountsUpdates(t *testing.T) {
	r := newRunner(t, map[string]string{
		"firefox": "128.0",
		"vlc":     "3.0.21",
	})

	report, err := r.Run(context.Background(), &Inventory{Software: []Item{
		{Name: "firefox", CurrentVersion: "127.0"},
		{Name: "vlc", CurrentVersion: "3.0.21"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.UpdatesFound)
	assert.Equal(t, 0, report.Failures)
	assert.True(t, report.Entries[0].UpdateFound)
	assert.False(t, report.Entries[1].UpdateFound)
}

func TestRunRecordsFailures(t *testing.T) {
	r := newRunner(t, map[string]string{"firefox": "128.0"})

	report, err := r.Run(context.Background(), &Inventory{Software: []Item{
		{Name: "firefox"},
		{Name: "unknown tool"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Failures)
	require.Len(t, report.Entries, 2)
	assert.NotEmpty(t, report.Entries[1].Error)
	assert.Equal(t, "unknown tool", report.Entries[1].Software)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	r := newRunner(t, map[string]string{"firefox": "128.0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, &Inventory{Software: []Item{{Name: "firefox"}}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReportWriteAtomic(t *testing.T) {
	r := newRunner(t, map[string]string{"firefox": "128.0"})

	report, err := r.Run(context.Background(), &Inventory{Software: []Item{{Name: "firefox"}}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.Checked)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, "128.0", decoded.Entries[0].LatestVersion)
}
