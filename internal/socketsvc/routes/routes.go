package routes

import (
	"net/http"

	"github.com/avvvet/pickup-services/internal/socketsvc/handlers"
	"github.com/avvvet/pickup-services/internal/socketsvc/ws"
	"github.com/go-chi/chi"
)

// SetRoutes mounts the live feed under /api. Origins outside allowed are
// refused at upgrade; an empty list allows every origin.
func SetRoutes(r chi.Router, ws *ws.Ws, port string, allowed []string) {
	h := handlers.NewHandler(ws, port, checkOrigin(allowed))
	r.Route("/api", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		r.Get("/health", h.HealthHandler)
	})
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
