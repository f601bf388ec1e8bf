// Package api provides HTTP API server implementation for the Fletcher service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fletcher-oaas/fletcher/internal/api/middleware"
	"github.com/fletcher-oaas/fletcher/internal/auth"
	"github.com/fletcher-oaas/fletcher/internal/planservice"
	"github.com/fletcher-oaas/fletcher/internal/storage"
)

// ProblemDetail represents an RFC 7807 Problem Details structure.
// See https://tools.ietf.org/html/rfc7807 for specification.
type ProblemDetail struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail,omitempty"`
	Instance      string `json:"instance,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// NewProblemDetail creates a new RFC 7807 Problem Detail.
func NewProblemDetail(status int, title, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   fmt.Sprintf("https://fletcher.dev/problems/%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// WithInstance adds an instance URI to the problem detail.
func (p *ProblemDetail) WithInstance(instance string) *ProblemDetail {
	p.Instance = instance

	return p
}

// WithCorrelationID adds a correlation ID to the problem detail.
func (p *ProblemDetail) WithCorrelationID(correlationID string) *ProblemDetail {
	p.CorrelationID = correlationID

	return p
}

// WriteErrorResponse writes an RFC 7807 compliant error response.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, problem *ProblemDetail) {
	correlationID := middleware.GetCorrelationID(r.Context())

	// Add correlation ID if not already set
	if problem.CorrelationID == "" {
		problem.CorrelationID = correlationID
	}

	// Add instance if not already set
	if problem.Instance == "" {
		problem.Instance = r.URL.Path
	}

	// Set proper content type for RFC 7807
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		logger.Error("Failed to encode error response",
			slog.String("correlation_id", correlationID),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
			slog.Any("encode_error", err),
			slog.Int("status", problem.Status),
		)

		// Fallback to basic error response
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Common error constructors for frequently used errors.

// InternalServerError creates a 500 Internal Server Error problem.
func InternalServerError(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusInternalServerError,
		"Internal Server Error",
		detail,
	)
}

// BadRequest creates a 400 Bad Request problem.
func BadRequest(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusBadRequest,
		"Bad Request",
		detail,
	)
}

// NotFound creates a 404 Not Found problem.
func NotFound(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusNotFound,
		"Not Found",
		detail,
	)
}

// MethodNotAllowed creates a 405 Method Not Allowed problem.
func MethodNotAllowed(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusMethodNotAllowed,
		"Method Not Allowed",
		detail,
	)
}

// Unauthorized creates a 401 Unauthorized problem.
func Unauthorized(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusUnauthorized,
		"Unauthorized",
		detail,
	)
}

// Forbidden creates a 403 Forbidden problem.
func Forbidden(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusForbidden,
		"Forbidden",
		detail,
	)
}

// UnprocessableEntity creates a 422 Unprocessable Entity problem.
func UnprocessableEntity(detail string) *ProblemDetail {
	return NewProblemDetail(
		http.StatusUnprocessableEntity,
		"Unprocessable Entity",
		detail,
	)
}

// ProblemDetailFromError maps an error returned by the Plan Service or the
// Auth Service to its RFC 7807 problem detail, following the table in
// §4.6: InvalidKey/InvalidService -> 401, Jwt/Role/Disabled -> 403,
// Missing/storage NotFound -> 404, BadState/Duplicate/
// DuplicateDependencies/Pause/storage constraint -> 400, Cyclical/dangling
// reference -> 422, everything else -> 500.
func ProblemDetailFromError(err error) *ProblemDetail {
	var (
		invalidKey        *auth.InvalidKeyError
		invalidService    *auth.InvalidServiceError
		roleErr           *auth.RoleError
		tokenErr          *auth.TokenError
		duplicateErr      *planservice.DuplicateError
		duplicateDepsErr  *planservice.DuplicateDependenciesError
		selfDependencyErr *planservice.SelfDependencyError
		missingErr        *planservice.MissingError
		badStateErr       *planservice.BadStateError
		pauseErr          *planservice.PauseError
		runFieldsErr      *planservice.RunFieldsRequiredError
		danglingErr       *planservice.DanglingError
		constraintErr     *storage.ConstraintError
	)

	switch {
	case errors.As(err, &invalidKey):
		return Unauthorized(err.Error())
	case errors.As(err, &invalidService):
		return Unauthorized(err.Error())
	case errors.As(err, &roleErr):
		return Forbidden(err.Error())
	case errors.As(err, &tokenErr):
		return Forbidden(err.Error())
	case errors.As(err, &missingErr):
		return NotFound(err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return NotFound(err.Error())
	case errors.As(err, &badStateErr):
		return BadRequest(err.Error())
	case errors.As(err, &duplicateErr):
		return BadRequest(err.Error())
	case errors.As(err, &duplicateDepsErr):
		return BadRequest(err.Error())
	case errors.As(err, &selfDependencyErr):
		return BadRequest(err.Error())
	case errors.As(err, &runFieldsErr):
		return BadRequest(err.Error())
	case errors.As(err, &pauseErr):
		return BadRequest(err.Error())
	case errors.As(err, &constraintErr):
		return BadRequest(err.Error())
	case errors.As(err, &danglingErr):
		return UnprocessableEntity(err.Error())
	case errors.Is(err, planservice.ErrCyclical):
		return UnprocessableEntity(err.Error())
	default:
		return InternalServerError("an unexpected error occurred")
	}
}
