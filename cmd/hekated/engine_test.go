// SPDX-License-Identifier: MIT

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devKaos117/hekate/internal/config"
)

func TestBuildEngineFromDefaults(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Backend = "none"
	cfg.RateLimit.GlobalRate = 7.5
	cfg.RateLimit.PerHostRate = 1.5

	eng, err := buildEngine(cfg, false)
	require.NoError(t, err)
	defer eng.close()

	assert.NotNil(t, eng.finder)
	assert.NotNil(t, eng.website)
	assert.Nil(t, eng.history)
	assert.Nil(t, eng.redis)
	assert.Len(t, eng.finder.Providers(), 3)
}

func TestBuildEngineNoUsableMethods(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cache.Backend = "none"
	cfg.Lookup.Methods = []string{"carrier pigeon"}

	_, err := buildEngine(cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable lookup methods")
}
