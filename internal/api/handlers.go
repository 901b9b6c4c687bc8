// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/devKaos117/hekate/internal/finder"
	"github.com/devKaos117/hekate/internal/log"
)

const defaultHistoryLimit = 20

// handleVersion resolves the latest version of the software in the URL.
// An optional ?current= query parameter enables update detection.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	software, err := url.PathUnescape(chi.URLParam(r, "software"))
	if err != nil || software == "" {
		writeError(w, http.StatusBadRequest, "invalid software name")
		return
	}
	current := r.URL.Query().Get("current")

	ctx := log.ContextWithLookupID(r.Context(), uuid.New().String())

	result, err := s.finder.FindLatest(ctx, software, current)
	if err != nil {
		if errors.Is(err, finder.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no version information found")
			return
		}
		if ctx.Err() != nil {
			// Client went away; nothing sensible to write.
			return
		}
		logger := log.WithComponentFromContext(ctx, "api")
		logger.Error().Err(err).Str("software", software).Msg("version lookup failed")
		writeError(w, http.StatusBadGateway, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleHistory returns past lookup results for the software, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	software, err := url.PathUnescape(chi.URLParam(r, "software"))
	if err != nil || software == "" {
		writeError(w, http.StatusBadRequest, "invalid software name")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	results, err := s.history.Recent(software, limit)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str("software", software).Msg("history query failed")
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	if len(results) == 0 {
		writeError(w, http.StatusNotFound, "no history for software")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"software": software,
		"count":    len(results),
		"results":  results,
	})
}

// handleProviders lists the configured lookup providers in priority order.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": s.finder.Providers(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}
