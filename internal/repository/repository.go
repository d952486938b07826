package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mlevkov/promptkeep/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user with unique email
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, email string, hashedPassword string, displayName *string) (models.User, error)

	// Get user by its id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// RefreshToken repository interface
// Records are revoked, never deleted: a revoked row is the replay signal
type RefreshTokenRepo interface {
	// Save token record in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the record by exact token hash match
	// Must return revoked and expired records too, the caller decides what they mean
	// If no record found must return apperrors.ErrRefreshTokenNotFound
	GetByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error)

	// Revoke token by id
	// Must be idempotent: if the token is revoked already must keep the original revokedAt
	Revoke(ctx context.Context, tokenID uuid.UUID) (revokedAt time.Time, err error)

	// Revoke every active token of the user ("sign out everywhere")
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// Prompt repository interface
type PromptRepo interface {
	// List prompts ordered by creation time, newest first
	// If favoriteOnly is true return only favorite prompts
	ListPrompts(ctx context.Context, favoriteOnly bool) ([]models.Prompt, error)

	// Get prompt by id
	// If prompt not found must return apperrors.ErrPromptNotFound
	GetPrompt(ctx context.Context, id int64) (models.Prompt, error)

	CreatePrompt(ctx context.Context, title string, content string, isFavorite bool) (models.Prompt, error)

	// Update prompt fields, nil fields keep their stored values
	// If prompt not found must return apperrors.ErrPromptNotFound
	UpdatePrompt(ctx context.Context, id int64, title *string, content *string, isFavorite *bool) (models.Prompt, error)

	// Delete prompt by id
	// If prompt not found must return apperrors.ErrPromptNotFound
	DeletePrompt(ctx context.Context, id int64) error

	// Case insensitive substring search over title and content
	SearchPrompts(ctx context.Context, query string) ([]models.Prompt, error)
}
