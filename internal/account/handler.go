// Package account serves the signed-in user's account page.
package account

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/apperr"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/middleware"
	"github.com/adi-9999-debug/jabalpur-estate-hub/internal/models"
)

const defaultMaxActivity = 200

// ProfileStore is satisfied by *store.PostgresStore.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// ActivityLister is satisfied by *store.MongoStore.
type ActivityLister interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.Activity, error)
}

type Handler struct {
	profiles    ProfileStore
	activity    ActivityLister
	maxActivity int64
}

// NewHandler returns the account handlers. activity may be nil when no
// activity log is configured. maxActivity caps one activity page; zero uses
// the default.
func NewHandler(profiles ProfileStore, activity ActivityLister, maxActivity int) *Handler {
	if maxActivity <= 0 {
		maxActivity = defaultMaxActivity
	}
	return &Handler{profiles: profiles, activity: activity, maxActivity: int64(maxActivity)}
}

// Get serves GET /api/account. A missing profile row still yields the
// account with empty profile fields.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.WhoFrom(r.Context()).CurrentUser()
	if !ok {
		apperr.WriteJSON(w, apperr.ErrAuthRequired)
		return
	}
	profile, err := h.profiles.GetProfile(r.Context(), user.ID)
	if err != nil && apperr.KindOf(err) != apperr.NotFound {
		apperr.WriteJSON(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.NewAccount(user, profile))
}

// Activity serves GET /api/account/activity?limit=N.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.WhoFrom(r.Context()).CurrentUser()
	if !ok {
		apperr.WriteJSON(w, apperr.ErrAuthRequired)
		return
	}
	events := []models.Activity{}
	if h.activity != nil {
		limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
		if limit > h.maxActivity {
			limit = h.maxActivity
		}
		var err error
		if events, err = h.activity.ListByUser(r.Context(), user.ID, limit); err != nil {
			apperr.WriteJSON(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
