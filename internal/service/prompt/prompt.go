package prompt

import (
	"context"

	"github.com/mlevkov/promptkeep/internal/models"
	"github.com/mlevkov/promptkeep/internal/repository"
)

// Prompt service
// Thin orchestration over the prompt repository
type PromptService struct {
	promptRepo repository.PromptRepo
}

func NewService(promptRepo repository.PromptRepo) *PromptService {
	return &PromptService{promptRepo: promptRepo}
}

func (s *PromptService) List(ctx context.Context, favoriteOnly bool) ([]models.Prompt, error) {
	return s.promptRepo.ListPrompts(ctx, favoriteOnly)
}

func (s *PromptService) Get(ctx context.Context, id int64) (models.Prompt, error) {
	return s.promptRepo.GetPrompt(ctx, id)
}

func (s *PromptService) Create(ctx context.Context, title string, content string, isFavorite bool) (models.Prompt, error) {
	return s.promptRepo.CreatePrompt(ctx, title, content, isFavorite)
}

// Update changes only the fields that are not nil
func (s *PromptService) Update(ctx context.Context, id int64, title *string, content *string, isFavorite *bool) (models.Prompt, error) {
	return s.promptRepo.UpdatePrompt(ctx, id, title, content, isFavorite)
}

func (s *PromptService) Delete(ctx context.Context, id int64) error {
	return s.promptRepo.DeletePrompt(ctx, id)
}

func (s *PromptService) Search(ctx context.Context, query string) ([]models.Prompt, error) {
	return s.promptRepo.SearchPrompts(ctx, query)
}
