package httpserver

import (
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/config"
)

const (
	corsAllowMethods = "GET,POST,PATCH,DELETE,OPTIONS"
	corsAllowHeaders = "Authorization,Content-Type"
	// export file names and the rate limiter's retry hint
	corsExposeHeaders = "Content-Disposition,Retry-After"
)

// CORSMiddleware lets the coach web app call the API from the configured
// origins. Other origins get no CORS headers and the browser blocks them.
func CORSMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.CORSAllowedOrigins))
	for _, o := range cfg.CORSAllowedOrigins {
		allowed[strings.TrimSpace(o)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		ok := origin != "" && allowed[origin]

		if ok {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			if cfg.CORSAllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
		}

		// preflight never reaches auth or the rate limiter
		if r.Method == http.MethodOptions && origin != "" {
			if ok {
				w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
