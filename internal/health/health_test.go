// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAlwaysHealthyWithoutVerbose(t *testing.T) {
	m := NewManager("1.2.3")
	m.RegisterChecker(NewCheckFunc("broken", func(context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Error: "down"}
	}))

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Nil(t, resp.Checks)
}

func TestHealthVerboseAggregates(t *testing.T) {
	m := NewManager("1.2.3")
	m.RegisterChecker(NewCheckFunc("ok", func(context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	}))
	m.RegisterChecker(NewCheckFunc("slow", func(context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded, Message: "slow"}
	}))

	resp := m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
}

func TestReadyFailsOnUnhealthyComponent(t *testing.T) {
	m := NewManager("dev")
	m.RegisterChecker(NewCheckFunc("cache", func(context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Error: "connection refused"}
	}))

	resp := m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Equal(t, StatusUnhealthy, resp.Status)
}

func TestReadyWithNoCheckers(t *testing.T) {
	resp := NewManager("dev").Ready(context.Background())
	assert.True(t, resp.Ready)
}

func TestServeHealthHTTP(t *testing.T) {
	m := NewManager("dev")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	m.ServeHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
}

func TestServeReadyHTTPNotReady(t *testing.T) {
	m := NewManager("dev")
	m.RegisterChecker(NewCheckFunc("cache", func(context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy}
	}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	m.ServeReady(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubPinger struct{ err error }

func (s *stubPinger) HealthCheck(context.Context) error { return s.err }

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("redis", &stubPinger{})
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	bad := NewPingChecker("redis", &stubPinger{err: errors.New("refused")})
	result := bad.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Contains(t, result.Error, "refused")
}
