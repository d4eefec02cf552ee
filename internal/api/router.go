package api

import (
	"finai-backend/internal/config"
	"finai-backend/internal/handlers"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler      *handlers.AuthHandler
	ChatHandler      *handlers.ChatHandlers
	ChecklistHandler *handlers.ChecklistHandler
	Config           *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	if deps.AuthHandler == nil || deps.ChatHandler == nil || deps.ChecklistHandler == nil || deps.Config == nil {
		panic("router dependency is nil in router setup")
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	// No middleware.Timeout: /chat streams and is bounded by CHAT_GENERATION_TIMEOUT instead.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})
	r.Get("/checklist/definition", deps.ChecklistHandler.HandleGetDefinition)

	// --- Chat: identity optional, anonymous turns are not persisted ---
	r.With(OptionalJwtAuthMiddleware(deps.Config.JWTSecret)).Post("/chat", deps.ChatHandler.HandleChat)

	// --- Authenticated Routes (JWT Required) ---
	r.Group(func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))

		r.Get("/chat/history", deps.ChatHandler.HandleGetHistory)
		r.Get("/chat/history/export", deps.ChatHandler.HandleExportHistory)
		r.Post("/checklist", deps.ChecklistHandler.HandleSubmit)
		r.Get("/checklist", deps.ChecklistHandler.HandleGetProfile)
	})

	return r
}
