package www

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fleetedge/config"
	"fleetedge/engine"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	cfg      *config.Config
	sessions *sessionStore
}

// NewRouter creates the chi router. Booking and deployment endpoints
// are open to depot apps; the sync ops endpoints require an admin
// session.
func NewRouter(eng *engine.Engine, cfg *config.Config) http.Handler {
	h := &Handlers{
		engine:   eng,
		cfg:      cfg,
		sessions: newSessionStore(cfg.Web.SessionSecret),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Post("/bookings", h.apiCreateBooking)
		r.Get("/bookings", h.apiListBookings)
		r.Get("/bookings/{ref}", h.apiGetBooking)
		r.Get("/bookings/{ref}/history", h.apiBookingHistory)
		r.Put("/bookings/{ref}/status", h.apiUpdateBookingStatus)
		r.Post("/bookings/{ref}/rating", h.apiRateBooking)
		r.Delete("/bookings/{ref}", h.apiCancelBooking)

		r.Post("/deployments", h.apiCreateDeployment)
		r.Get("/deployments", h.apiListDeployments)
		r.Get("/deployments/{uuid}", h.apiGetDeployment)
		r.Get("/deployments/{uuid}/history", h.apiDeploymentHistory)
		r.Post("/deployments/{uuid}/start", h.apiStartDeployment)
		r.Put("/deployments/{uuid}/tracking", h.apiUpdateTracking)
		r.Post("/deployments/{uuid}/complete", h.apiCompleteDeployment)
		r.Delete("/deployments/{uuid}", h.apiCancelDeployment)

		r.Post("/candidates", h.apiSelectCandidates)

		// Sync ops (admin-only)
		r.Group(func(r chi.Router) {
			r.Use(h.adminMiddleware)
			r.Get("/sync/queue", h.apiSyncQueue)
			r.Get("/sync/dead-letters", h.apiDeadLetters)
			r.Post("/sync/dead-letters/{id}/requeue", h.apiRequeueDeadLetter)
			r.Post("/sync/replay", h.apiTriggerReplay)
			r.Post("/config/password", h.apiChangePassword)
		})
	})

	return r
}

func (h *Handlers) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := h.sessions.getUser(r)
		if !ok || username == "" {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
