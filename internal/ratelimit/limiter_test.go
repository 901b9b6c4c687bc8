// SPDX-License-Identifier: MIT

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAllowPerHostBudget(t *testing.T) {
	l := New(Config{
		GlobalRate:   rate.Limit(1000),
		GlobalBurst:  1000,
		PerHostRate:  rate.Limit(1),
		PerHostBurst: 2,
	})

	assert.True(t, l.Allow("a.example"))
	assert.True(t, l.Allow("a.example"))
	assert.False(t, l.Allow("a.example"), "burst of 2 exhausted")

	// independent budget per host
	assert.True(t, l.Allow("b.example"))
}

func TestAllowGlobalBudget(t *testing.T) {
	l := New(Config{
		GlobalRate:   rate.Limit(1),
		GlobalBurst:  1,
		PerHostRate:  rate.Limit(100),
		PerHostBurst: 100,
	})

	assert.True(t, l.Allow("a.example"))
	assert.False(t, l.Allow("b.example"), "global budget shared across hosts")
}

func TestWaitHonorsContext(t *testing.T) {
	l := New(Config{
		GlobalRate:   rate.Limit(1),
		GlobalBurst:  1,
		PerHostRate:  rate.Limit(1),
		PerHostBurst: 1,
	})
	require.NoError(t, l.Wait(context.Background(), "a.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "a.example")
	assert.Error(t, err)
}
