// Package middleware provides HTTP middleware components for the Fletcher API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fletcher-oaas/fletcher/internal/auth"
	"github.com/fletcher-oaas/fletcher/internal/domain"
)

// serviceContextKey is the context key for ServiceContext.
type serviceContextKey struct{}

// ServiceContext carries the identity a verified bearer token proved for
// the lifetime of one request.
type ServiceContext struct {
	ServiceID string
	Roles     []domain.Role
}

// HasRole reports whether the authenticated service carries role.
func (s ServiceContext) HasRole(role domain.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}

	return false
}

// GetServiceContext extracts the ServiceContext set by AuthenticateJWT, if
// any request reached this far without one (a public endpoint, or
// authentication disabled).
func GetServiceContext(ctx context.Context) (ServiceContext, bool) {
	svc, ok := ctx.Value(serviceContextKey{}).(ServiceContext)

	return svc, ok
}

// PublicEndpoints names request paths that bypass JWT authentication.
var publicEndpoints = map[string]bool{} //nolint:gochecknoglobals

// RegisterPublicEndpoint marks path as exempt from AuthenticateJWT.
func RegisterPublicEndpoint(path string) {
	publicEndpoints[path] = true
}

// AuthenticateJWT returns a middleware that verifies the request's bearer
// token against svc and stores the resulting ServiceContext. Requests to
// a path registered with RegisterPublicEndpoint skip verification
// entirely. If svc is nil, authentication is disabled and every request
// passes through unauthenticated.
func AuthenticateJWT(svc *auth.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil || publicEndpoints[r.URL.Path] {
				next.ServeHTTP(w, r)

				return
			}

			correlationID := GetCorrelationID(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, r, logger, correlationID, "missing or malformed Authorization header")

				return
			}

			authorization, err := svc.Verify(token)
			if err != nil {
				var (
					invalidService *auth.InvalidServiceError
					tokenErr       *auth.TokenError
				)

				switch {
				case errors.As(err, &invalidService):
					writeUnauthorized(w, r, logger, correlationID, err.Error())
				case errors.As(err, &tokenErr):
					writeForbidden(w, r, logger, correlationID, err.Error())
				default:
					writeUnauthorized(w, r, logger, correlationID, "token verification failed")
				}

				return
			}

			ctx := context.WithValue(r.Context(), serviceContextKey{}, ServiceContext{
				ServiceID: authorization.Service,
				Roles:     authorization.Roles,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from a "Bearer <token>" Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))

	return token, token != ""
}

// RequireRole writes a 403 Forbidden RFC 7807 response and returns false
// if the request's ServiceContext does not carry role. Handlers call this
// after AuthenticateJWT has run, once they know which role the operation
// being performed requires.
func RequireRole(w http.ResponseWriter, r *http.Request, logger *slog.Logger, role domain.Role) bool {
	svc, ok := GetServiceContext(r.Context())
	if !ok || !svc.HasRole(role) {
		correlationID := GetCorrelationID(r.Context())
		detail := fmt.Sprintf("missing required role: %q", role)

		if err := writeRFC7807Error(w, r, http.StatusForbidden, detail, correlationID); err != nil {
			logger.Error("failed to write RFC 7807 error response",
				slog.String("correlation_id", correlationID),
				slog.String("error", err.Error()),
			)

			http.Error(w, detail, http.StatusForbidden)
		}

		return false
	}

	return true
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, correlationID, detail string) {
	if err := writeRFC7807Error(w, r, http.StatusUnauthorized, detail, correlationID); err != nil {
		logger.Error("failed to write RFC 7807 error response",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		http.Error(w, detail, http.StatusUnauthorized)
	}
}

// writeForbidden writes a 403 response for a bearer token that parsed but
// failed signature, expiry, or claims verification (auth.TokenError).
func writeForbidden(w http.ResponseWriter, r *http.Request, logger *slog.Logger, correlationID, detail string) {
	if err := writeRFC7807Error(w, r, http.StatusForbidden, detail, correlationID); err != nil {
		logger.Error("failed to write RFC 7807 error response",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		http.Error(w, detail, http.StatusForbidden)
	}
}

// writeRFC7807Error writes a minimal RFC 7807 Problem Details body. The
// api package's WriteErrorResponse carries the full constructor set; this
// copy exists so middleware can report auth and rate-limit failures
// without importing the api package, which would create an import cycle.
func writeRFC7807Error(w http.ResponseWriter, r *http.Request, status int, detail, correlationID string) error {
	problem := struct {
		Type          string `json:"type"`
		Title         string `json:"title"`
		Status        int    `json:"status"`
		Detail        string `json:"detail"`
		Instance      string `json:"instance"`
		CorrelationID string `json:"correlation_id"` //nolint: tagliatelle
	}{
		Type:          fmt.Sprintf("https://fletcher.dev/problems/%d", status),
		Title:         http.StatusText(status),
		Status:        status,
		Detail:        detail,
		Instance:      r.URL.Path,
		CorrelationID: correlationID,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(problem)
}
