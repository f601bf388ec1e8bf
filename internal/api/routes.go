// Package api provides HTTP API server implementation for the Fletcher service.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fletcher-oaas/fletcher/internal/api/middleware"
	"github.com/fletcher-oaas/fletcher/internal/auth"
	"github.com/fletcher-oaas/fletcher/internal/domain"
)

const (
	healthCheckTimeout = 2 * time.Second
	expectedURLParts   = 2
)

type (
	// Version represents the API version response structure.
	Version struct {
		Version     string `json:"version"`
		ServiceName string `json:"serviceName"`
		BuildInfo   string `json:"buildInfo,omitempty"`
	}
	// HealthStatus represents the health check response structure.
	HealthStatus struct {
		Status      string `json:"status"`
		ServiceName string `json:"serviceName"`
		Version     string `json:"version"`
		Uptime      string `json:"uptime,omitempty"`
	}

	// Route represents an HTTP route configuration with a path and handler.
	// Used for declarative route registration with middleware bypass support.
	Route struct {
		Path    string           // The URL path for this route (e.g., "/ping", "/api/v1/health")
		Handler http.HandlerFunc // The HTTP handler function for this route
	}
)

// setupRoutes registers all HTTP routes for the API server.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Public health/version endpoints and the login endpoint that mints
	// bearer tokens bypass authentication entirely.
	s.registerPublicRoutes(
		mux,
		Route{"GET /ping", s.handlePing},
		Route{"GET /healthz", s.handleHealthz},
		Route{"GET /version", s.handleVersion},
		Route{"POST /api/auth/login", s.handleLogin},
		Route{"/", s.handleNotFound},
	)

	// Plan lifecycle endpoints. Role checks happen inside the handler,
	// after AuthenticateJWT has already rejected unauthenticated requests.
	mux.HandleFunc("POST /api/plan_dag", s.handlePlanDAGAdd)
	mux.HandleFunc("GET /api/plan_dag/{dataset_id}", s.handlePlanDAGRead)
	mux.HandleFunc("POST /api/state/{dataset_id}/{data_product_id}", s.handleStateChange)
}

// registerPublicRoutes registers HTTP routes that bypass authentication.
// Rate limiting still applies to them, under the unauthenticated tier.
// This is a convenience method that:
//  1. Registers the route handler with the HTTP mux
//  2. Automatically registers the path as a public endpoint (bypasses auth middleware)
//
// Public routes should only be used for operational endpoints and the login
// endpoint itself, never for endpoints that return or mutate plan data.
func (s *Server) registerPublicRoutes(mux *http.ServeMux, routes ...Route) {
	validHTTPMethods := map[string]bool{
		"GET":    true,
		"POST":   true,
		"PUT":    true,
		"PATCH":  true,
		"DELETE": true,
	}

	for _, route := range routes {
		mux.Handle(route.Path, route.Handler)

		// Strip method prefix for public endpoint bypass registration.
		// Go 1.22+ method-based routing uses "GET /path" format, but
		// r.URL.Path is just "/path" (no method prefix).
		path := route.Path

		parts := strings.Fields(path)
		if len(parts) == expectedURLParts && validHTTPMethods[parts[0]] {
			path = strings.TrimSpace(parts[1])
		}

		if path == "" {
			s.logger.Warn("malformed route path detected, ignoring route", slog.String("path", path))

			continue
		}

		middleware.RegisterPublicEndpoint(path)
	}
}

// handlePing responds to ping requests for basic server validation.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		s.logger.Error("failed to write ping response",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)
	}
}

// handleHealthz responds to liveness/readiness probes with the health of
// the underlying storage connection.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.GetCorrelationID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var uptime string
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Round(time.Second).String()
	}

	if err := s.conn.HealthCheck(ctx); err != nil {
		s.logger.Error("storage health check failed",
			slog.String("correlation_id", correlationID),
			slog.String("error", err.Error()),
		)

		writeJSON(w, s.logger, http.StatusServiceUnavailable, HealthStatus{
			Status:      "unavailable",
			ServiceName: "fletcher",
			Version:     s.config.Version,
			Uptime:      uptime,
		})

		return
	}

	writeJSON(w, s.logger, http.StatusOK, HealthStatus{
		Status:      "healthy",
		ServiceName: "fletcher",
		Version:     s.config.Version,
		Uptime:      uptime,
	})
}

// handleVersion reports the running build's version.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, Version{
		Version:     s.config.Version,
		ServiceName: "fletcher",
	})
}

// handleNotFound returns RFC 7807 compliant 404 responses for unknown endpoints.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteErrorResponse(w, r, s.logger, NotFound("the requested resource was not found"))
}

// handleLogin authenticates a service account and mints a bearer token.
// POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var login auth.Login

	if err := json.NewDecoder(r.Body).Decode(&login); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("invalid JSON: "+err.Error()))

		return
	}

	authenticated, err := s.authService.Authenticate(login)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, ProblemDetailFromError(err))

		return
	}

	writeJSON(w, s.logger, http.StatusOK, authenticated)
}

// handlePlanDAGAdd validates and upserts a Plan submission. Requires the
// publish role.
// POST /api/plan_dag.
func (s *Server) handlePlanDAGAdd(w http.ResponseWriter, r *http.Request) {
	if !middleware.RequireRole(w, r, s.logger, domain.RolePublish) {
		return
	}

	var param domain.PlanParam

	if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("invalid JSON: "+err.Error()))

		return
	}

	serviceCtx, _ := middleware.GetServiceContext(r.Context())

	plan, err := s.planService.PlanDAGAdd(r.Context(), param, serviceCtx.ServiceID)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, ProblemDetailFromError(err))

		return
	}

	writeJSON(w, s.logger, http.StatusOK, plan)
}

// handlePlanDAGRead returns the persisted Plan for a dataset. Any
// authenticated service account may call this.
// GET /api/plan_dag/{dataset_id}.
func (s *Server) handlePlanDAGRead(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := s.pathDatasetID(w, r)
	if !ok {
		return
	}

	plan, err := s.planService.PlanDAGRead(r.Context(), datasetID)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, ProblemDetailFromError(err))

		return
	}

	writeJSON(w, s.logger, http.StatusOK, plan)
}

// handleStateChange applies a state transition to one data product.
// Requires the update role.
// POST /api/state/{dataset_id}/{data_product_id}.
func (s *Server) handleStateChange(w http.ResponseWriter, r *http.Request) {
	if !middleware.RequireRole(w, r, s.logger, domain.RoleUpdate) {
		return
	}

	datasetID, ok := s.pathDatasetID(w, r)
	if !ok {
		return
	}

	dataProductID := r.PathValue("data_product_id")
	if dataProductID == "" {
		WriteErrorResponse(w, r, s.logger, BadRequest("data_product_id path segment cannot be empty"))

		return
	}

	var param domain.StateParam

	if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("invalid JSON: "+err.Error()))

		return
	}

	param.DatasetId = datasetID
	param.DataProductId = dataProductID

	serviceCtx, _ := middleware.GetServiceContext(r.Context())

	dataProduct, err := s.planService.StateChange(r.Context(), datasetID, param, serviceCtx.ServiceID)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, ProblemDetailFromError(err))

		return
	}

	writeJSON(w, s.logger, http.StatusOK, dataProduct)
}

// pathDatasetID parses the dataset_id path value as a UUID, writing a 400
// response and returning ok=false on failure.
func (s *Server) pathDatasetID(w http.ResponseWriter, r *http.Request) (domain.DatasetId, bool) {
	raw := r.PathValue("dataset_id")

	id, err := uuid.Parse(raw)
	if err != nil {
		WriteErrorResponse(w, r, s.logger, BadRequest("dataset_id must be a UUID: "+err.Error()))

		return domain.DatasetId{}, false
	}

	return id, true
}

// writeJSON marshals v and writes it with status as an application/json
// response, falling back to a 500 problem response if encoding fails.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal response", slog.String("error", err.Error()))
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}

