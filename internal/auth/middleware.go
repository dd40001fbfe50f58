package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/userctx"
	log "github.com/sirupsen/logrus"
)

// Middleware: middleware для проверки авторизации
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// Authenticate resolves the coach for every request.
//
// AUTH_MODE=none: everyone is DefaultUserID.
// AUTH_MODE=dev: a Bearer token is verified when present; without one the
// request is rejected if AUTH_REQUIRED=1 and otherwise runs as DefaultUserID.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if m.config.AuthMode == config.AuthModeNone {
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), DefaultUserID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" {
			if m.config.AuthRequired {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), DefaultUserID)))
			return
		}

		userID, err := m.authenticateHeader(authHeader)
		if err != nil {
			log.Debugf("auth: rejected token method=%s path=%s: %v", r.Method, r.URL.Path, err)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		log.Tracef("auth: token accepted sub=%s method=%s path=%s", userID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

func (m *Middleware) authenticateHeader(authHeader string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidToken
	}

	return m.service.VerifyJWT(strings.TrimSpace(parts[1]))
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func isPublicPath(path string) bool {
	return path == "/healthz" || path == "/metrics" || strings.HasPrefix(path, "/v1/auth/")
}
