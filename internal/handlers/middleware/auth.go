package middleware

import (
	"context"
	"net/http"

	"github.com/mlevkov/promptkeep/internal/handlers/render"
	"github.com/mlevkov/promptkeep/internal/handlers/userctx"
	"github.com/mlevkov/promptkeep/internal/models"
)

type authService interface {
	// Validate the bearer token of the request and return its user
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

type logger interface {
	Debug(msg string, args ...any)
}

type Auth struct {
	service authService
	logger  logger
}

func NewAuth(service authService, logger logger) *Auth {
	return &Auth{service: service, logger: logger}
}

// Auth guards the handler: requests without a valid access token get 401
// Every failure cause (missing header, bad signature, expired token) looks
// the same to the client, the precise reason is only logged
func (m *Auth) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.service.Authenticate(r.Context(), r)
		if err != nil {
			m.logger.Debug("request not authenticated", "uri", r.RequestURI, "error", err.Error())
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := userctx.New(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
