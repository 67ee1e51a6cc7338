package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatService "github.com/mentalmatters/mentalmatters/internal/service/chat"
	"github.com/mentalmatters/mentalmatters/pkg/utils"
)

// EventClosed is sent once when the session ends while a client is listening.
const EventClosed = "closed"

const defaultHeartbeat = 15 * time.Second

// Handler pushes a session's state changes to browsers via Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a stream handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc, heartbeat: defaultHeartbeat}
}

// RegisterRoutes registers the stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctrl, err := h.chatSvc.Get(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	events, cancel := ctrl.Subscribe()
	defer cancel()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	log.Printf("[sse] opening stream for session=%s", sessionID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] client left session=%s", sessionID)
			return
		case event, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, EventClosed, map[string]string{"sessionId": sessionID})
				log.Printf("[sse] session ended session=%s", sessionID)
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(event.Kind), event.State); err != nil {
				log.Printf("[sse] write error session=%s: %v", sessionID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
