// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	repository "github.com/pablohpsilva/something-something-sub003/internal/adapters/repository"
)

// LeaderboardHandler handles leaderboard page requests.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles
// GET /leaderboard?period=&scope=&ref=&cursor=&limit= requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}

	var cursor *string
	if v := strings.TrimSpace(r.URL.Query().Get("cursor")); v != "" {
		cursor = &v
	}

	page, err := h.deps.ReadLeaderboard(r.Context(), paramsFromQuery(r), cursor, limit)
	if err != nil {
		if isInvalidParams(err) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// isInvalidParams translates service-layer validation failures to 400s.
func isInvalidParams(err error) bool {
	return errors.Is(err, repository.ErrInvalidPeriod) || errors.Is(err, repository.ErrInvalidScope)
}
