// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devKaos117/hekate/internal/cache"
	"github.com/devKaos117/hekate/internal/finder"
	"github.com/devKaos117/hekate/internal/health"
	"github.com/devKaos117/hekate/internal/log"
	"github.com/devKaos117/hekate/internal/provider"
)

type stubProvider struct {
	versions map[string]string
}

func (s *stubProvider) Name() string          { return "stub" }
func (s *stubProvider) CanHandle(string) bool { return true }
func (s *stubProvider) Lookup(_ context.Context, software string) (*provider.Result, error) {
	v, ok := s.versions[software]
	if !ok {
		return nil, provider.ErrNoVersion
	}
	return &provider.Result{
		Software:      software,
		LatestVersion: v,
		Method:        "stub",
		CheckedAt:     time.Now().UTC(),
	}, nil
}

type stubHistory struct {
	results map[string][]*provider.Result
}

func (s *stubHistory) Latest(software string) (*provider.Result, error) {
	rs := s.results[software]
	if len(rs) == 0 {
		return nil, nil
	}
	return rs[0], nil
}

func (s *stubHistory) Recent(software string, n int) ([]*provider.Result, error) {
	rs := s.results[software]
	if len(rs) > n {
		rs = rs[:n]
	}
	return rs, nil
}

func newTestServer(t *testing.T, versions map[string]string, hist History) *httptest.Server {
	t.Helper()

	f := finder.New(
		[]provider.Provider{&stubProvider{versions: versions}},
		cache.NewNoOpCache(),
		nil,
		log.WithComponent("api-test"),
		finder.DefaultOptions(),
	)
	s := New(f, hist, health.NewManager("test"), Options{})

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t, map[string]string{"firefox": "128.0"}, nil)

	var result provider.Result
	code := getJSON(t, srv.URL+"/api/v1/version/firefox?current=127.0", &result)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "firefox", result.Software)
	assert.Equal(t, "128.0", result.LatestVersion)
	assert.Equal(t, "127.0", result.CurrentVersion)
	assert.True(t, result.UpdateFound)
}

func TestVersionEndpointEscapedName(t *testing.T) {
	srv := newTestServer(t, map[string]string{"visual studio code": "1.93.0"}, nil)

	var result provider.Result
	code := getJSON(t, srv.URL+"/api/v1/version/visual%20studio%20code", &result)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "visual studio code", result.Software)
}

func TestVersionEndpointNotFound(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	code := getJSON(t, srv.URL+"/api/v1/version/unknown", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHistoryEndpoint(t *testing.T) {
	hist := &stubHistory{results: map[string][]*provider.Result{
		"vlc": {
			{Software: "vlc", LatestVersion: "3.0.21", Method: "website"},
			{Software: "vlc", LatestVersion: "3.0.20", Method: "website"},
		},
	}}
	srv := newTestServer(t, nil, hist)

	var body struct {
		Software string             `json:"software"`
		Count    int                `json:"count"`
		Results  []*provider.Result `json:"results"`
	}
	code := getJSON(t, srv.URL+"/api/v1/history/vlc", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "3.0.21", body.Results[0].LatestVersion)
}

func TestHistoryEndpointLimit(t *testing.T) {
	hist := &stubHistory{results: map[string][]*provider.Result{
		"vlc": {
			{Software: "vlc", LatestVersion: "3.0.21"},
			{Software: "vlc", LatestVersion: "3.0.20"},
		},
	}}
	srv := newTestServer(t, nil, hist)

	var body struct {
		Count int `json:"count"`
	}
	code := getJSON(t, srv.URL+"/api/v1/history/vlc?limit=1", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, body.Count)
}

func TestHistoryEndpointBadLimit(t *testing.T) {
	srv := newTestServer(t, nil, &stubHistory{})

	code := getJSON(t, srv.URL+"/api/v1/history/vlc?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHistoryEndpointEmpty(t *testing.T) {
	srv := newTestServer(t, nil, &stubHistory{})

	code := getJSON(t, srv.URL+"/api/v1/history/never-checked", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHistoryEndpointDisabled(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	code := getJSON(t, srv.URL+"/api/v1/history/vlc", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProvidersEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	var body struct {
		Providers []string `json:"providers"`
	}
	code := getJSON(t, srv.URL+"/api/v1/providers", &body)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"stub"}, body.Providers)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/healthz", nil))
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/readyz", nil))
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}
