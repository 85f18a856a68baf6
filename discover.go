package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/frndr/backend/match"
	"github.com/rs/zerolog"
)

// matchService produces ranked matches for a requester.
type matchService interface {
	GetMatches(ctx context.Context, requesterID, limit int) ([]match.Result, error)
}

// MatchView is a match as returned to clients: the basic user fields plus
// the compatibility percentage.
type MatchView struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	AvatarTemplate string `json:"avatar_template"`
	Compatibility  int    `json:"compatibility"`
}

func toViews(results []match.Result) []MatchView {
	views := make([]MatchView, len(results))
	for i, r := range results {
		views[i] = MatchView{
			ID:             r.User.ID,
			Username:       r.User.Username,
			Name:           r.User.Name,
			AvatarTemplate: r.User.AvatarTemplate,
			Compatibility:  r.Compatibility,
		}
	}
	return views
}

// discovery is shared by the HTTP and websocket endpoints.
type discovery struct {
	svc          matchService
	metrics      *matchMetrics
	defaultLimit int
	maxLimit     int
}

func (d *discovery) matches(ctx context.Context, userID, limit int) ([]MatchView, error) {
	started := time.Now()
	results, err := d.svc.GetMatches(ctx, userID, limit)
	switch {
	case errors.Is(err, match.ErrUserNotFound):
		d.metrics.observe(outcomeNotFound, started, 0)
		return nil, err
	case err != nil:
		d.metrics.observe(outcomeError, started, 0)
		return nil, err
	case len(results) == 0:
		d.metrics.observe(outcomeEmpty, started, 0)
	default:
		d.metrics.observe(outcomeOK, started, len(results))
	}
	return toViews(results), nil
}

// GET /discover?limit=N
func discoverHandler(d *discovery) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		limit, err := parseLimit(r.URL.Query().Get("limit"), d.defaultLimit, d.maxLimit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}

		userID := r.Context().Value(userIDKey).(int)
		views, err := d.matches(r.Context(), userID, limit)
		if errors.Is(err, match.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("user_id", userID).Msg("match lookup failed")
			writeError(w, http.StatusInternalServerError, "match_error")
			return
		}

		writeJSON(w, http.StatusOK, map[string][]MatchView{"matches": views})
	})
}
