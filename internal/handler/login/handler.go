package login

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	validator "github.com/mentalmatters/mentalmatters/internal/analysis/login"
	model "github.com/mentalmatters/mentalmatters/internal/model/login"
	"github.com/mentalmatters/mentalmatters/pkg/utils"
)

// Result is the answer to a login submission. A failed validation is a normal
// result, not an HTTP error.
type Result struct {
	Valid  bool                   `json:"valid"`
	Errors model.ValidationErrors `json:"errors"`
}

// Handler validates login forms.
type Handler struct{}

// New creates the login handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes registers the login routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form model.Form
	if err := utils.DecodeJSON(r, &form); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := validator.Validate(form)
	utils.RespondJSON(w, http.StatusOK, Result{Valid: errs.Empty(), Errors: errs})
}
