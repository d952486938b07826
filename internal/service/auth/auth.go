package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mlevkov/promptkeep/internal/apperrors"
	"github.com/mlevkov/promptkeep/internal/models"
	"github.com/mlevkov/promptkeep/internal/repository"
	"github.com/mlevkov/promptkeep/internal/service/auth/tokenmanager"
)

const bearerScheme = "Bearer"

type Config struct {
	// Hasher to use during registration or login
	// If not set then DefaultHasher is used
	Hasher PasswordHasher
}

// Auth service
// Orchestrates registration, login, token refresh, logout and access token validation
type AuthService struct {
	// Manager to issue and verify token pairs
	token *tokenmanager.TokenManager

	// Hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access user records
	userRepo repository.UserRepo
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if token == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	return &AuthService{
		token:    token,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

// Register creates the user and issues the first token pair
// Duplicate email fails with apperrors.ErrUserAlreadyExists and mutates nothing
func (s *AuthService) Register(ctx context.Context, email string, password string, displayName *string) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, hash, displayName)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.token.IssuePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	return user, pair, nil
}

// Login verifies credentials and issues a fresh token pair
// Unknown email and wrong password fail with the same apperrors.ErrInvalidCredentials,
// so the caller can't enumerate accounts
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.User{}, models.TokenPair{}, fmt.Errorf("login failed: %w", apperrors.ErrInvalidCredentials)
		}
		return models.User{}, models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("login failed: %w", apperrors.ErrInvalidCredentials)
	}

	pair, err := s.token.IssuePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	return user, pair, nil
}

// Refresh rotates the presented refresh token: the old record is revoked first,
// then a new pair is issued for the same user
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.IssuePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("error while issuing token pair. Err: %w", err)
	}

	return pair, nil
}

// Logout revokes the refresh token if it known
// Logging out twice or with a bogus token is not an error
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.token.RevokeRefresh(ctx, refresh)
}

// RevokeAllSessions revokes every refresh token of the user
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID int64) error {
	return s.token.RevokeAllForUser(ctx, userID)
}

// Authenticate validates the bearer access token of the request and loads its user
// No token, bad token and vanished user all end up as errors the transport maps to 401
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	access, err := bearerToken(r)
	if err != nil {
		return models.User{}, err
	}

	claims, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return models.User{}, err
	}

	return s.userRepo.GetUserByID(ctx, userID)
}

// CurrentUser returns the user by id
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// bearerToken extracts the token from 'Authorization: Bearer <token>' header
// Absent or malformed header is a missing token, not an invalid one
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperrors.ErrBearerTokenMissing
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme || token == "" {
		return "", apperrors.ErrBearerTokenMissing
	}

	return token, nil
}
