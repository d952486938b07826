package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/mlevkov/promptkeep/internal/handlers"
	"github.com/mlevkov/promptkeep/internal/handlers/middleware"
	"github.com/mlevkov/promptkeep/internal/logger"
	"github.com/mlevkov/promptkeep/internal/repository/postgres"
	"github.com/mlevkov/promptkeep/internal/service/auth"
	"github.com/mlevkov/promptkeep/internal/service/auth/tokenmanager"
	"github.com/mlevkov/promptkeep/internal/service/prompt"
	"github.com/mlevkov/promptkeep/internal/testutil"
)

type Services struct {
	AuthService   *auth.AuthService
	PromptService *prompt.PromptService
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}
		promptRepo := &postgres.PromptRepo{DB: tx}

		// Initialize services
		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, refreshRepo)
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{Hasher: auth.PBKDF2Hasher{Rounds: 4}}, tokenManager, userRepo)
		require.NoError(t, err, "auth service starting error", err)

		ps := prompt.NewService(promptRepo)

		// Initialize handlers
		log := logger.NewNoOpLogger()
		authHandler := handlers.NewAuth(as, log)
		promptHandler := handlers.NewPrompt(ps, log)
		authMiddleware := middleware.NewAuth(as, log)

		// Complete all together as router
		router := handlers.NewRouter(
			authHandler,
			promptHandler,
			authMiddleware.Auth,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:   as,
			PromptService: ps,
		})
	})
}
