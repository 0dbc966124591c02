package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/carsound-ops/api/internal/auth"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate requires a bearer token minted by this service and stores its
// claims on the request context.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authorization format"})
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, strings.TrimSpace(token))
			if err != nil {
				log.WithError(err).WithField("path", r.URL.Path).Debug("rejected token")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits only the listed roles. It must run after Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			log.WithFields(log.Fields{
				"user":   claims.Name,
				"role":   claims.Role,
				"method": r.Method,
				"path":   r.URL.Path,
			}).Info("role denied")
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		})
	}
}

// RequireConfirmation guards irreversible actions. The client must send
// X-Confirm: true, and when a pin hash is configured, a matching X-Confirm-Pin.
func RequireConfirmation(pinHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.EqualFold(r.Header.Get("X-Confirm"), "true") {
				writeJSON(w, http.StatusPreconditionRequired, map[string]string{"error": "confirmation required"})
				return
			}
			if pinHash != "" {
				if err := auth.CheckPin(pinHash, r.Header.Get("X-Confirm-Pin")); err != nil {
					log.WithFields(log.Fields{"user": Actor(r.Context()), "path": r.URL.Path}).Warn("confirmation pin mismatch")
					writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid confirmation pin"})
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// Actor is the display name of the authenticated operator, or "" when the
// request carries no claims.
func Actor(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Name
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("encode response")
	}
}
