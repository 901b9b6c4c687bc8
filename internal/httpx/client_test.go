// SPDX-License-Identifier: MIT

package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devKaos117/hekate/internal/log"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Timeout = 2 * time.Second
	opts.MaxRetries = 2
	return opts
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(testOptions(), nil, log.WithComponent("test"))
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.JSON(&payload))
	assert.True(t, payload.OK)
}

func TestGetQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "firefox", r.URL.Query().Get("q"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(testOptions(), nil, log.WithComponent("test"))
	_, err := c.Get(context.Background(), srv.URL, url.Values{"q": {"firefox"}})
	require.NoError(t, err)
}

func TestGetRetriesOnTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fine"))
	}))
	defer srv.Close()

	c := New(testOptions(), nil, log.WithComponent("test"))
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []byte("fine"), resp.Body)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testOptions(), nil, log.WithComponent("test"))
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 1
	c := New(opts, nil, log.WithComponent("test"))
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, ErrRetriesExhausted)
}

func TestGetContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(testOptions(), nil, log.WithComponent("test"))
	_, err := c.Get(ctx, srv.URL, nil)
	require.Error(t, err)
}

func TestBreakerRejectsAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // non-retryable failure
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 0
	opts.BreakerThreshold = 2
	opts.BreakerReset = time.Hour
	c := New(opts, nil, log.WithComponent("test"))

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), srv.URL, nil)
		require.Error(t, err)
	}

	// Third call is rejected by the open breaker before reaching the server.
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
}

func TestFixedUserAgent(t *testing.T) {
	opts := testOptions()
	opts.RandomizeAgent = false
	opts.UserAgents = []string{"agent-one", "agent-two"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "agent-one", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(opts, nil, log.WithComponent("test"))
	_, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
}
