package handlers

import (
	"net/http"
	"time"

	"github.com/mlevkov/promptkeep/internal/handlers/render"
	"github.com/mlevkov/promptkeep/internal/handlers/userctx"
	"github.com/mlevkov/promptkeep/internal/models"
)

// Public user view, never carries the password hash
type userResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// Current user endpoint, requires auth middleware before it
func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			// Reachable only if the route is wired without the auth middleware
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		render.JSON(w, toUserResponse(user))
	})
}
