// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	repository "github.com/pablohpsilva/something-something-sub003/internal/adapters/repository"
	service "github.com/pablohpsilva/something-something-sub003/internal/app"
	"github.com/pablohpsilva/something-something-sub003/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ReadLeaderboard serves one cursor-paginated page of the latest
	// snapshot for the key.
	ReadLeaderboard(ctx context.Context, p service.Params, cursor *string, limit int) (types.Page, error)

	// RankOf resolves one content's entry and percentile in the latest
	// snapshot, nil when not ranked.
	RankOf(ctx context.Context, p service.Params, contentID string) (*types.Entry, float64, error)

	// UserBadges lists the badges a user holds.
	UserBadges(ctx context.Context, userID string) ([]repository.AwardedBadge, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	badgesHandler      *BadgesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		badgesHandler:      NewBadgesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/badges", MetricsMiddleware(s.badgesHandler.HandleGetCatalog, "badges"))
	mux.HandleFunc("/users/", MetricsMiddleware(s.badgesHandler.HandleGetUserBadges, "user_badges"))
}

// paramsFromQuery builds leaderboard params from period/scope/ref query
// values. Period defaults to WEEKLY and scope to GLOBAL; values are
// case-insensitive. Validation itself is left to the service layer.
func paramsFromQuery(r *http.Request) service.Params {
	q := r.URL.Query()

	period := types.PeriodWeekly
	if v := strings.TrimSpace(q.Get("period")); v != "" {
		period = types.Period(strings.ToUpper(v))
	}
	scope := types.ScopeGlobal
	if v := strings.TrimSpace(q.Get("scope")); v != "" {
		scope = types.Scope(strings.ToUpper(v))
	}

	var ref *string
	if v := strings.TrimSpace(q.Get("ref")); v != "" {
		ref = &v
	}
	return service.Params{Period: period, Scope: scope, ScopeRef: ref}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
