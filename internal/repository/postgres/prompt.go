package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mlevkov/promptkeep/internal/apperrors"
	"github.com/mlevkov/promptkeep/internal/models"
)

type PromptRepo struct {
	DB DBTX
}

const listPrompts = `-- name: ListPrompts
SELECT id, title, content, is_favorite, created_at, updated_at
FROM prompts
WHERE NOT $1::bool OR is_favorite
ORDER BY created_at DESC, id DESC
`

func (r *PromptRepo) ListPrompts(ctx context.Context, favoriteOnly bool) ([]models.Prompt, error) {
	rows, _ := r.DB.Query(ctx, listPrompts, favoriteOnly)
	prompts, err := pgx.CollectRows(rows, rowToPrompt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return prompts, nil
}

const getPrompt = `-- name: GetPrompt
SELECT id, title, content, is_favorite, created_at, updated_at
FROM prompts
WHERE id = $1
`

func (r *PromptRepo) GetPrompt(ctx context.Context, id int64) (models.Prompt, error) {
	rows, _ := r.DB.Query(ctx, getPrompt, id)
	return collectPrompt(rows)
}

const createPrompt = `-- name: CreatePrompt
INSERT INTO prompts (title, content, is_favorite)
VALUES ($1, $2, $3)
RETURNING id, title, content, is_favorite, created_at, updated_at
`

func (r *PromptRepo) CreatePrompt(ctx context.Context, title string, content string, isFavorite bool) (models.Prompt, error) {
	rows, _ := r.DB.Query(ctx, createPrompt, title, content, isFavorite)
	prompt, err := pgx.CollectOneRow(rows, rowToPrompt)
	if err != nil {
		return prompt, fmt.Errorf("db error: %w", err)
	}
	return prompt, nil
}

const updatePrompt = `-- name: UpdatePrompt
UPDATE prompts
SET title       = COALESCE($2, title),
    content     = COALESCE($3, content),
    is_favorite = COALESCE($4, is_favorite),
    updated_at  = now()
WHERE id = $1
RETURNING id, title, content, is_favorite, created_at, updated_at
`

func (r *PromptRepo) UpdatePrompt(ctx context.Context, id int64, title *string, content *string, isFavorite *bool) (models.Prompt, error) {
	rows, _ := r.DB.Query(ctx, updatePrompt, id, title, content, isFavorite)
	return collectPrompt(rows)
}

const deletePrompt = `-- name: DeletePrompt
DELETE FROM prompts
WHERE id = $1
`

func (r *PromptRepo) DeletePrompt(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deletePrompt, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrPromptNotFound)
	}
	return nil
}

const searchPrompts = `-- name: SearchPrompts
SELECT id, title, content, is_favorite, created_at, updated_at
FROM prompts
WHERE title ILIKE '%' || $1 || '%' OR content ILIKE '%' || $1 || '%'
ORDER BY created_at DESC, id DESC
`

func (r *PromptRepo) SearchPrompts(ctx context.Context, query string) ([]models.Prompt, error) {
	rows, _ := r.DB.Query(ctx, searchPrompts, query)
	prompts, err := pgx.CollectRows(rows, rowToPrompt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return prompts, nil
}

func collectPrompt(rows pgx.Rows) (models.Prompt, error) {
	prompt, err := pgx.CollectOneRow(rows, rowToPrompt)

	switch {
	case err == nil:
		return prompt, nil
	case errors.Is(err, pgx.ErrNoRows):
		return prompt, fmt.Errorf("repo error: %w", apperrors.ErrPromptNotFound)
	default:
		return prompt, fmt.Errorf("db error: %w", err)
	}
}

func rowToPrompt(row pgx.CollectableRow) (models.Prompt, error) {
	var p models.Prompt
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.IsFavorite, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
