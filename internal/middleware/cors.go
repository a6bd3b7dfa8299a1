package middleware

import (
	"net/http"
)

// EnableCORS answers cross-origin requests from the given origins. An empty list or
// a "*" entry allows any origin without reflecting it.
func EnableCORS(allowed []string, next http.Handler) http.Handler {
	anyOrigin := len(allowed) == 0
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
			continue
		}
		origins[o] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		permitted := false
		switch {
		case origin == "":
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
			permitted = true
		default:
			if _, ok := origins[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				permitted = true
			}
		}
		if permitted {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		// Preflight
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !permitted {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
