// Package activity serves the per-user side feeds: unlocked achievements
// and recent notifications.
package activity

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-roster/internal/http/middleware"
	"github.com/aanand-mishra/student-roster/internal/notify"
	"github.com/aanand-mishra/student-roster/internal/types"
	"github.com/aanand-mishra/student-roster/internal/utils/response"
)

// DefaultLimit is how many notifications are returned without ?limit=.
const DefaultLimit = 20

type AchievementLister interface {
	Achievements(ctx context.Context, owner string) ([]types.Achievement, error)
}

type NotificationLister interface {
	Notifications(ctx context.Context, owner string, limit int) ([]notify.Notification, error)
}

// Achievements handles GET /api/achievements, newest unlock first.
func Achievements(l AchievementLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := l.Achievements(r.Context(), middleware.OwnerFromContext(r.Context()))
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if list == nil {
			list = []types.Achievement{}
		}
		response.WriteJSON(w, http.StatusOK, list)
	}
}

// Notifications handles GET /api/notifications?limit=N, newest first.
func Notifications(l NotificationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := DefaultLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				response.WriteJSON(w, http.StatusBadRequest,
					response.GeneralError(errors.New("limit must be a positive integer")))
				return
			}
			limit = n
		}

		list, err := l.Notifications(r.Context(), middleware.OwnerFromContext(r.Context()), limit)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if list == nil {
			list = []notify.Notification{}
		}
		response.WriteJSON(w, http.StatusOK, list)
	}
}
