package api

import "net/http"

// CORS sets cross-origin headers for allowed origins and answers preflight requests.
// An origin list containing "*" allows any origin.
type CORS struct {
	origins  map[string]bool
	allowAll bool
}

// NewCORS creates a CORS middleware for the given origins.
func NewCORS(origins []string) *CORS {
	c := &CORS{origins: make(map[string]bool, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			c.allowAll = true
		}
		c.origins[origin] = true
	}
	return c
}

// Handler wraps next with CORS handling.
func (c *CORS) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		switch {
		case c.allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && c.origins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
