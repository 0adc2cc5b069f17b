// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/pablohpsilva/something-something-sub003/internal/domain/badges"
)

// BadgesHandler serves the badge catalog and per-user awards.
type BadgesHandler struct {
	deps Dependencies
}

// NewBadgesHandler creates a new badges handler.
func NewBadgesHandler(deps Dependencies) *BadgesHandler {
	return &BadgesHandler{deps: deps}
}

// badgeResponse is the read shape for one catalog definition.
type badgeResponse struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CriteriaType string `json:"criteriaType"`
}

// HandleGetCatalog handles GET /badges requests.
func (h *BadgesHandler) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	defs := badges.Catalog()
	out := make([]badgeResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, badgeResponse{
			Slug:         d.Slug,
			Name:         d.Name,
			Description:  d.Description,
			CriteriaType: d.Criteria.Type(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetUserBadges handles GET /users/{user_id}/badges requests.
func (h *BadgesHandler) HandleGetUserBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	userID, tail, found := strings.Cut(rest, "/")
	if !found || userID == "" || tail != "badges" {
		http.NotFound(w, r)
		return
	}

	held, err := h.deps.UserBadges(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, held)
}
