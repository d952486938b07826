package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevkov/promptkeep/internal/apperrors"
	"github.com/mlevkov/promptkeep/internal/models"
	"github.com/mlevkov/promptkeep/internal/repository/postgres"
	"github.com/mlevkov/promptkeep/internal/testutil"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Refresh tokens reference users, so every tx creates its own user first
	withTx := func(dbpool *pgxpool.Pool, t *testing.T, accessTTL time.Duration, refreshTTL time.Duration, fn func(m *TokenManager, user models.User)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			user, err := userRepo.CreateUser(t.Context(), "tokenuser@example.com", "hashed-password", nil)
			require.NoError(t, err, "test user should be created without errors")

			tokenManager, err := New(Config{
				SecretKey:  "test-secret-key",
				AccessTTL:  accessTTL,
				RefreshTTL: refreshTTL,
			}, &postgres.RefreshTokenRepo{DB: tx})
			require.NoError(t, err, "token manager should be created without errors")

			fn(tokenManager, user)
		})
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"}, nil)
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "secret", m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new requires secret", func(t *testing.T) {
		_, err := New(Config{}, nil)
		require.Error(t, err, "empty secret key should not be accepted")
	})

	t.Run("IssuePair", func(t *testing.T) {
		t.Run("return token pair", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)

					require.NoError(t, err)

					assert.NotEmpty(t, pair.Access.Value, "access token should not be empty")
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), pair.Access.ExpiresAt, time.Second)
					assert.NotEmpty(t, pair.Refresh.Value, "refresh token should not be empty")
					assert.WithinDuration(t, time.Now().Add(24*time.Hour), pair.Refresh.ExpiresAt, time.Second)
				},
			)
		})

		t.Run("access claims", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					// Parse and verify the access token
					token, err := jwt.ParseWithClaims(pair.Access.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
						return []byte("test-secret-key"), nil
					})
					require.NoError(t, err)
					require.True(t, token.Valid, "access token should be valid")

					claims, ok := token.Claims.(*AccessTokenClaims)
					require.True(t, ok, "claims should be of type AccessTokenClaims")

					userID, err := claims.UserID()
					require.NoError(t, err, "subject should parse back into user id")
					assert.Equal(t, user.ID, userID, "user ID in token should match")
					assert.Equal(t, user.Email, claims.Email, "email in token should match")
					assert.NotEmpty(t, claims.ID, "token has to has jti")
					assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second, "issued at should be close to now")
					assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second, "expires at should be 15 minutes from now")

					assert.WithinDuration(t, pair.Access.ExpiresAt, claims.ExpiresAt.Time, 0, "access expires at should match token pair")
				},
			)
		})

		t.Run("generate different tokens", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair1, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					pair2, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					assert.NotEqual(t, pair1.Refresh.Value, pair2.Refresh.Value, "refresh tokens should be different")
					assert.NotEqual(t, pair1.Access.Value, pair2.Access.Value, "access tokens should be different")
				},
			)
		})

		t.Run("store refresh hash only", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				userRepo := &postgres.UserRepo{DB: tx}
				refreshRepo := &postgres.RefreshTokenRepo{DB: tx}
				user, err := userRepo.CreateUser(t.Context(), "tokenuser@example.com", "hashed-password", nil)
				require.NoError(t, err)

				tokenManager, err := New(Config{SecretKey: "test-secret-key"}, refreshRepo)
				require.NoError(t, err)

				pair, err := tokenManager.IssuePair(t.Context(), user)
				require.NoError(t, err)

				_, err = refreshRepo.GetByHash(t.Context(), HashToken(pair.Refresh.Value))
				require.NoError(t, err, "record should be found by hash of the raw value")

				_, err = refreshRepo.GetByHash(t.Context(), pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "raw value must never hit the storage")
			})
		})
	})

	t.Run("UseRefresh", func(t *testing.T) {
		t.Run("use token once", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					token, err := tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.NoError(t, err, "using refresh token should not return an error")

					require.Equal(t, user.ID, token.UserID)
					require.WithinDuration(t, pair.Refresh.ExpiresAt, token.ExpiresAt, time.Second, "refresh token expiration should match expected value")
				},
			)
		})

		t.Run("use token twice", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					// Use the token once
					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.NoError(t, err, "using refresh token should not return an error")

					// Try to use the same token again
					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked, "using the same refresh token again should fail as revoked")
				},
			)
		})

		t.Run("use unknown token", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					_, err := tokenManager.UseRefresh(t.Context(), "never-issued")
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
				},
			)
		})

		t.Run("use expired token", func(t *testing.T) {
			withTx(pg.Pool, t, 1*time.Second, 1*time.Second,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					// Wait for the token to expire
					time.Sleep(time.Second)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenExpired, "using expired refresh token should fail as expired")
				},
			)
		})
	})

	t.Run("RevokeRefresh", func(t *testing.T) {
		t.Run("revoked token can't be used", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					err = tokenManager.RevokeRefresh(t.Context(), pair.Refresh.Value)
					require.NoError(t, err)

					_, err = tokenManager.UseRefresh(t.Context(), pair.Refresh.Value)
					require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
				},
			)
		})

		t.Run("revoke is idempotent", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					require.NoError(t, tokenManager.RevokeRefresh(t.Context(), pair.Refresh.Value))
					require.NoError(t, tokenManager.RevokeRefresh(t.Context(), pair.Refresh.Value), "second revoke should not fail")
					require.NoError(t, tokenManager.RevokeRefresh(t.Context(), "never-issued"), "unknown token revoke should not fail")
				},
			)
		})
	})

	t.Run("RevokeAllForUser", func(t *testing.T) {
		withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
			func(tokenManager *TokenManager, user models.User) {
				pair1, err := tokenManager.IssuePair(t.Context(), user)
				require.NoError(t, err)
				pair2, err := tokenManager.IssuePair(t.Context(), user)
				require.NoError(t, err)

				err = tokenManager.RevokeAllForUser(t.Context(), user.ID)
				require.NoError(t, err)

				_, err = tokenManager.UseRefresh(t.Context(), pair1.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
				_, err = tokenManager.UseRefresh(t.Context(), pair2.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenRevoked)
			},
		)
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			withTx(pg.Pool, t, 15*time.Minute, 24*time.Hour,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err, "token pair should be generated without errors")

					claims, err := tokenManager.ParseAccess(pair.Access.Value)
					require.NoError(t, err, "valid token should be parsed without errors")

					userID, err := claims.UserID()
					require.NoError(t, err)
					require.Equal(t, user.ID, userID)
					require.Equal(t, user.Email, claims.Email)
				},
			)
		})

		t.Run("not a token", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			_, err = m.ParseAccess("invalid token")
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "parsing even not a token should return an error")
		})

		t.Run("expired token", func(t *testing.T) {
			withTx(pg.Pool, t, 1*time.Second, 1*time.Second,
				func(tokenManager *TokenManager, user models.User) {
					pair, err := tokenManager.IssuePair(t.Context(), user)
					require.NoError(t, err)

					// Wait for the token to expire
					time.Sleep(time.Second)

					_, err = tokenManager.ParseAccess(pair.Access.Value)
					require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token has to become expired")
				},
			)
		})

		t.Run("token signed with other key", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			token := jwt.NewWithClaims(
				jwt.SigningMethodHS256,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Subject:   "1",
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					Email: "someone@example.com",
				},
			)
			access, err := token.SignedString([]byte("other-secret-key"))
			require.NoError(t, err)

			_, err = m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token signed with other key must fail")
		})

		t.Run("not signed token", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			// Create valid but unsigned token
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Subject:   "1",
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					Email: "someone@example.com",
				},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "valid token with empty alg must fail")
		})

		t.Run("token without expiration", func(t *testing.T) {
			m, err := New(Config{SecretKey: "test-secret-key"}, nil)
			require.NoError(t, err)

			token := jwt.NewWithClaims(
				jwt.SigningMethodHS256,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:       uuid.NewString(),
						Subject:  "1",
						IssuedAt: jwt.NewNumericDate(time.Now()),
					},
					Email: "someone@example.com",
				},
			)
			access, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.ParseAccess(access)
			require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid, "token without exp claim must fail")
		})
	})
}
