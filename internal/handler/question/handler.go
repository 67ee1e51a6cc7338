package question

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentalmatters/mentalmatters/internal/model/question"
	"github.com/mentalmatters/mentalmatters/pkg/utils"
)

// Handler serves the "Frequent Questions" list.
type Handler struct {
	questions question.Store
}

// New creates the question handler.
func New(questions question.Store) *Handler {
	return &Handler{questions: questions}
}

// RegisterRoutes registers the question routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/questions", h.handleListQuestions)
}

func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.questions.List())
}
