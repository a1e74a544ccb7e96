package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pethaven/internal/domain"
	"pethaven/internal/service"
)

// Deps are the collaborators the router serves.
type Deps struct {
	AppName        string
	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimiter    *IPRateLimiter
	// TrustProxy enables middleware.RealIP. Without it clients are keyed by
	// the connection address only.
	TrustProxy bool

	Auth          *service.AuthService
	Users         *service.UserService
	Conversations *service.ConversationService
	Messages      *service.MessageService
	Notifications *service.NotificationService
	Pets          *service.PetService
	Applications  *service.ApplicationService

	// Realtime serves GET /ws.
	Realtime http.Handler
	// Ping reports whether the store is reachable.
	Ping func(ctx context.Context) error

	Log *slog.Logger
}

// NewRouter constructs the main HTTP router and wires routes and middleware.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": d.AppName + " is running"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/ready", handleReady(d.Ping, log))

	// The websocket route stays outside the request timeout.
	if d.Realtime != nil {
		r.Method(http.MethodGet, "/ws", d.Realtime)
	}

	r.Route("/api", func(r chi.Router) {
		if d.RequestTimeout > 0 {
			r.Use(middleware.Timeout(d.RequestTimeout))
		}
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Handler)
		}
		auth := AuthMiddleware(d.Auth, log)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(d.Auth, log))
			r.Post("/login", handleLogin(d.Auth, log))
			r.With(auth).Get("/me", handleMe())
		})

		r.Get("/users/{userID}", handleGetUser(d.Users, log))

		r.Route("/pets", func(r chi.Router) {
			r.Get("/", handleListPets(d.Pets, log))
			r.Get("/{petID}", handleGetPet(d.Pets, log))
			r.With(auth, RequireRole(domain.RoleShelter)).Post("/", handleCreatePet(d.Pets, log))
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Route("/chat", func(r chi.Router) {
				r.Get("/conversations", handleListConversations(d.Conversations, log))
				r.Get("/{userID}", handleListMessages(d.Messages, log))
				r.Put("/{userID}/read", handleMarkThreadRead(d.Messages, log))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", handleListNotifications(d.Notifications, log))
				r.Put("/{id}/read", handleMarkNotificationRead(d.Notifications, log))
			})

			r.Route("/applications", func(r chi.Router) {
				r.With(RequireRole(domain.RoleAdopter)).Post("/", handleCreateApplication(d.Applications, log))
				r.With(RequireRole(domain.RoleAdopter)).Get("/my", handleMyApplications(d.Applications, log))
				r.With(RequireRole(domain.RoleShelter)).Get("/shelter", handleShelterApplications(d.Applications, log))
				r.With(RequireRole(domain.RoleShelter)).Put("/{id}/status", handleUpdateApplicationStatus(d.Applications, log))
			})
		})
	})

	return r
}

func handleReady(ping func(ctx context.Context) error, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			log.Warn("readiness check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
