package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeOf returns the chi pattern that matched r, or fallback. chi fills the route
// context while it routes, so this is only complete after next.ServeHTTP returned.
func routeOf(r *http.Request, fallback string) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}
