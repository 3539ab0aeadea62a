// Package httptransport assembles the public HTTP surface from the per-domain
// handlers. Handlers own their routes; this package only owns the middleware
// chain and the operational endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustline/pkg/platform/httputil"
	authmw "trustline/pkg/platform/middleware/auth"
	"trustline/pkg/platform/middleware/device"
	"trustline/pkg/platform/middleware/metadata"
	request "trustline/pkg/platform/middleware/request"
	"trustline/pkg/platform/middleware/requesttime"
	"trustline/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger    *slog.Logger
	Principal authmw.PrincipalProvider
	Auditor   authmw.AuditPublisher

	// Handlers are mounted under /v1 behind bearer authentication.
	Handlers []RouteRegistrar
	// EmployeeHandlers additionally require the employee role.
	EmployeeHandlers []RouteRegistrar

	HealthChecks  map[string]HealthCheck
	MetricsHandle http.Handler
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(logger))
	r.Use(request.Logger(logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(device.Middleware)

	r.Get("/healthz", healthHandler(deps.HealthChecks))

	metricsHandle := deps.MetricsHandle
	if metricsHandle == nil {
		metricsHandle = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandle)

	var authOpts []authmw.Option
	if deps.Auditor != nil {
		authOpts = append(authOpts, authmw.WithAuditPublisher(deps.Auditor))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Principal, logger, authOpts...))
		for _, h := range deps.Handlers {
			h.Register(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRole(logger, requestcontext.RoleEmployee))
			for _, h := range deps.EmployeeHandlers {
				h.Register(r)
			}
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
