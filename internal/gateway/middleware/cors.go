package middleware

import (
	"net/http"
	"strings"

	"waypoint/internal/assistant"
)

// CORS reflects allowed origins and answers preflights. It shares the same
// OriginGuard the pipeline uses for admission, so the browser-visible policy
// and the 403 decision can never drift apart.
func CORS(guard *assistant.OriginGuard, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			if allowed, _ := guard.Check(origin); allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
