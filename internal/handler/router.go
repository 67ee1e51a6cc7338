package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mentalmatters/mentalmatters/internal/handler/chat"
	"github.com/mentalmatters/mentalmatters/internal/handler/live"
	"github.com/mentalmatters/mentalmatters/internal/handler/login"
	"github.com/mentalmatters/mentalmatters/internal/handler/question"
	"github.com/mentalmatters/mentalmatters/internal/handler/stream"
	middlewarePkg "github.com/mentalmatters/mentalmatters/internal/middleware"
	questionModel "github.com/mentalmatters/mentalmatters/internal/model/question"
	chatService "github.com/mentalmatters/mentalmatters/internal/service/chat"
	"github.com/mentalmatters/mentalmatters/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(questions questionModel.Store, chatSvc *chatService.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	questionHandler := question.New(questions)
	chatHandler := chat.New(chatSvc)
	loginHandler := login.New()
	streamHandler := stream.New(chatSvc)
	liveHandler := live.NewWebSocketHandler(chatSvc, originAllowed(allowedOrigins))

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		questionHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		loginHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
	})

	return r
}

func originAllowed(allowed []string) func(string) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return nil
		}
	}
	return func(origin string) bool {
		for _, candidate := range allowed {
			if candidate == origin {
				return true
			}
		}
		return false
	}
}
