package chat

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mentalmatters/mentalmatters/internal/model/chat"
	chatService "github.com/mentalmatters/mentalmatters/internal/service/chat"
	"github.com/mentalmatters/mentalmatters/internal/service/conversation"
)

// Handler exposes one chat screen per session over REST.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes registers the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleCloseSession)
		r.Put("/input", h.handleSetInput)
		r.Post("/messages", h.handleSendMessage)
		r.Post("/questions/{questionID}", h.handleSelectQuestion)
		r.Put("/modal", h.handleSetModal)
		r.Put("/notice", h.handleDismiss)
		r.Post("/feedback", h.handleSubmitFeedback)
		r.Post("/rating", h.handleSubmitRating)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	}

	// An empty body opens an anonymous session.
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.UserID, payload.UserName)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	ctrl, err := h.chatSvc.Get(session.ID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, ctrl.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.CloseSession(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetInput(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := ctrl.SetInput(payload.Text); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := ctrl.SendMessage(payload.Text); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusAccepted, ctrl.Snapshot())
}

func (h *Handler) handleSelectQuestion(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	if err := ctrl.SelectQuestion(chi.URLParam(r, "questionID")); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handleSetModal(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload struct {
		Modal string `json:"modal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modal, err := chat.ParseModal(payload.Modal)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := ctrl.OpenModal(modal); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	if err := ctrl.DismissNotice(); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	if err := ctrl.DismissError(); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload struct {
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := ctrl.SubmitFeedback(r.Context(), payload.Feedback); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var payload struct {
		Rating int `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := ctrl.SubmitRating(r.Context(), payload.Rating); err != nil {
		respondControllerError(w, ctrl, err)
		return
	}
	respondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*conversation.Controller, bool) {
	ctrl, err := h.chatSvc.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return ctrl, true
}

// respondControllerError maps controller errors onto status codes. Gateway
// failures answer 502 with the resulting state.
func respondControllerError(w http.ResponseWriter, ctrl *conversation.Controller, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, conversation.ErrEmptyFeedback),
		errors.Is(err, conversation.ErrInvalidRating):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrQuestionNotFound),
		errors.Is(err, conversation.ErrClosed):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[chat] session=%s gateway error: %v", ctrl.Session().ID, err)
		respondJSON(w, http.StatusBadGateway, ctrl.Snapshot())
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
