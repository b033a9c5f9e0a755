// Package chi is the HTTP surface of the gateway: parameter binding and
// validation, the two public read endpoints, health, and metrics.
package chi

import (
	"errors"
	"net/http"

	chipkg "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/MasterOfNone69/hhypermap-bop/internal/domain"
	"github.com/MasterOfNone69/hhypermap-bop/internal/domain/search/request"
	healthuc "github.com/MasterOfNone69/hhypermap-bop/internal/usecase/health"
	searchuc "github.com/MasterOfNone69/hhypermap-bop/internal/usecase/search"
	"github.com/MasterOfNone69/hhypermap-bop/internal/version"
)

// Error response codes.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeBackendQuery     = "backend_query_failed"
	codeExportNotReady   = "export_not_configured"
	codeInternalError    = "internal_error"
)

// errorResponse is the public error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the public API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search:   search,
		health:   health,
		validate: newValidator(),
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		backendQueryHandler,
		sentinelHandler(domain.ErrMalformedRange, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidRange, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrGapTooSmall, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrDegenerateGeometry, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrMissingGeoForDistanceSort, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrExportConfiguration, http.StatusBadRequest, codeExportNotReady),
	}
	return s
}

// Register mounts the public routes on the router.
func (s *Server) Register(r chipkg.Router) {
	r.Get("/search", s.Search)
	r.Get("/export", s.Export)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return
	}

	req, err := request.New(params.toInput())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Export handles GET /export. Once streaming has begun the status is on
// the wire; errors before the first row still produce a JSON error body.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	params, err := bindExportParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, validationMessage(err))
		return
	}

	req, err := request.NewExport(params.toInput())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)

	if err := s.search.Export(r.Context(), &req, w); err != nil {
		w.Header().Del("Content-Disposition")
		s.handleDomainError(w, err)
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":  report.Status,
		"checks":  report.Checks,
		"version": version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel-derived message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMalformedRange,
		domain.ErrInvalidRange,
		domain.ErrGapTooSmall,
		domain.ErrDegenerateGeometry,
		domain.ErrMissingGeoForDistanceSort,
		domain.ErrExportConfiguration,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			// Domain validation errors carry only request-derived detail;
			// the full message is safe to return.
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// backendQueryHandler forwards the engine's own failure status when it is
// a plausible HTTP status, and shields everything else behind 502.
func backendQueryHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrBackendQuery) {
		return false
	}
	status := http.StatusBadGateway
	message := "backend query failed"
	var bqe *domain.BackendQueryError
	if errors.As(err, &bqe) {
		if bqe.Status >= 400 && bqe.Status < 600 {
			status = bqe.Status
		}
		if bqe.Message != "" {
			message = bqe.Message
		}
	}
	writeError(w, status, codeBackendQuery, message)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
