// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
)

// RankHandler handles single-content rank lookups.
type RankHandler struct {
	deps Dependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps Dependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// rankResponse is the read shape for one content's standing.
type rankResponse struct {
	Entry      types.Entry `json:"entry"`
	Percentile float64     `json:"percentile"`
}

// HandleGetRank handles GET /rank/{content_id}?period=&scope=&ref=
// requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	contentID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if contentID == "" || strings.Contains(contentID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	entry, percentile, err := h.deps.RankOf(r.Context(), paramsFromQuery(r), contentID)
	if err != nil {
		if isInvalidParams(err) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{Entry: *entry, Percentile: percentile})
}
