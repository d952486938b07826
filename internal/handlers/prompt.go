package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mlevkov/promptkeep/internal/apperrors"
	"github.com/mlevkov/promptkeep/internal/handlers/render"
	"github.com/mlevkov/promptkeep/internal/models"
)

type promptService interface {
	List(ctx context.Context, favoriteOnly bool) ([]models.Prompt, error)
	Get(ctx context.Context, id int64) (models.Prompt, error)
	Create(ctx context.Context, title string, content string, isFavorite bool) (models.Prompt, error)
	Update(ctx context.Context, id int64, title *string, content *string, isFavorite *bool) (models.Prompt, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]models.Prompt, error)
}

type PromptHandler struct {
	service promptService
	logger  logger
}

func NewPrompt(service promptService, logger logger) *PromptHandler {
	return &PromptHandler{service: service, logger: logger}
}

type promptResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsFavorite bool      `json:"isFavorite"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toPromptResponse(p models.Prompt) promptResponse {
	return promptResponse{
		ID:         p.ID,
		Title:      p.Title,
		Content:    p.Content,
		IsFavorite: p.IsFavorite,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toPromptResponses(prompts []models.Prompt) []promptResponse {
	responses := make([]promptResponse, 0, len(prompts))
	for _, p := range prompts {
		responses = append(responses, toPromptResponse(p))
	}
	return responses
}

func (h *PromptHandler) list(w http.ResponseWriter, r *http.Request) {
	favoriteOnly := r.URL.Query().Get("isFavorite") == "true"

	prompts, err := h.service.List(r.Context(), favoriteOnly)
	if err != nil {
		h.logger.Error("prompt list failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toPromptResponses(prompts))
}

func (h *PromptHandler) search(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("prompt search failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toPromptResponses(prompts))
}

func (h *PromptHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := promptID(r)
	if err != nil {
		render.ServiceError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	prompt, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.renderPromptError(w, err)
		return
	}

	render.JSON(w, toPromptResponse(prompt))
}

func (h *PromptHandler) create(w http.ResponseWriter, r *http.Request) {
	type createRequest struct {
		Title      string `json:"title" validate:"required,min=1,max=100"`
		Content    string `json:"content" validate:"required,min=1"`
		IsFavorite bool   `json:"isFavorite"`
	}

	data, err := render.BindAndValidate[createRequest](w, r)
	if err != nil {
		return
	}

	prompt, err := h.service.Create(r.Context(), data.Title, data.Content, data.IsFavorite)
	if err != nil {
		h.logger.Error("prompt create failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, toPromptResponse(prompt), http.StatusCreated)
}

func (h *PromptHandler) update(w http.ResponseWriter, r *http.Request) {
	type updateRequest struct {
		Title      *string `json:"title" validate:"omitempty,min=1,max=100"`
		Content    *string `json:"content" validate:"omitempty,min=1"`
		IsFavorite *bool   `json:"isFavorite"`
	}

	id, err := promptID(r)
	if err != nil {
		render.ServiceError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	data, err := render.BindAndValidate[updateRequest](w, r)
	if err != nil {
		return
	}

	prompt, err := h.service.Update(r.Context(), id, data.Title, data.Content, data.IsFavorite)
	if err != nil {
		h.renderPromptError(w, err)
		return
	}

	render.JSON(w, toPromptResponse(prompt))
}

func (h *PromptHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := promptID(r)
	if err != nil {
		render.ServiceError(w, "Invalid prompt id", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.renderPromptError(w, err)
		return
	}

	render.NoContent(w)
}

func (h *PromptHandler) renderPromptError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrPromptNotFound):
		render.ServiceError(w, "Prompt not found", http.StatusNotFound)
	default:
		h.logger.Error("prompt request failed", "error", err.Error())
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func promptID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
