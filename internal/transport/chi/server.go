package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/domain"
	logpkg "github.com/kailas-cloud/movieidx/internal/logger"
	"github.com/kailas-cloud/movieidx/internal/metrics"
	healthuc "github.com/kailas-cloud/movieidx/internal/usecase/health"
	textindexuc "github.com/kailas-cloud/movieidx/internal/usecase/textindex"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest        ErrorCode = "bad_request"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeIndexNotFound     ErrorCode = "index_not_found"
	CodeIndexConflict     ErrorCode = "index_conflict"
	CodeAlreadyExists     ErrorCode = "index_already_exists"
	CodeInvalidDefinition ErrorCode = "invalid_definition"
	CodeInvalidQuery      ErrorCode = "invalid_query"
	CodeInternalError     ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Differences []string  `json:"differences,omitempty"`
}

const defaultHistoryLimit = 50

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the text index lifecycle over HTTP.
type Server struct {
	index         *textindexuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the admin API server.
func NewServer(index *textindexuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{index: index, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		conflictHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrInvalidDefinition, http.StatusBadRequest, CodeInvalidDefinition),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
	}
	return s
}

// Router assembles middlewares and routes. Health and metrics bypass auth.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/index", func(r chi.Router) {
		r.Get("/", s.GetIndex)
		r.Delete("/", s.DropIndex)
		r.Get("/plan", s.GetPlan)
		r.Post("/apply", s.ApplyIndex)
		r.Get("/history", s.GetHistory)
		r.Get("/probe", s.Probe)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// GetIndex handles GET /index: the fidelity report of the live index.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	rep, err := s.index.Verify(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetPlan handles GET /index/plan.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.index.Plan(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ApplyIndex handles POST /index/apply?replace=&dry_run=.
func (s *Server) ApplyIndex(w http.ResponseWriter, r *http.Request) {
	replace, err := boolParam(r, "replace")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	dryRun, err := boolParam(r, "dry_run")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.index.Apply(r.Context(), textindexuc.ApplyOptions{Replace: replace, DryRun: dryRun})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Outcome == textindexuc.OutcomeCreated {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// DropIndex handles DELETE /index?if_exists=&force=.
func (s *Server) DropIndex(w http.ResponseWriter, r *http.Request) {
	ifExists, err := boolParam(r, "if_exists")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	force, err := boolParam(r, "force")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.index.Drop(r.Context(), textindexuc.DropOptions{IfExists: ifExists, Force: force})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetHistory handles GET /index/history?limit=.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	entries, err := s.index.History(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// Probe handles GET /index/probe?q=&limit=.
func (s *Server) Probe(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", textindexuc.DefaultProbeLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.index.Probe(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("invalid " + name + " parameter: " + strconv.Quote(v))
	}
	return b, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + name + " parameter: " + strconv.Quote(v))
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrIndexConflict,
		domain.ErrInvalidDefinition,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	// Query validation messages carry no internals.
	if errors.Is(err, domain.ErrInvalidQuery) {
		return err.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// conflictHandler handles ErrIndexConflict, listing the drift when known.
func conflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrIndexConflict) {
		return false
	}
	resp := ErrorResponse{Code: CodeIndexConflict, Message: msg}
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		resp.Message = ce.Error()
		resp.Differences = ce.Differences
	}
	writeJSON(w, http.StatusConflict, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
