// Package chi exposes the recommender over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
)

// maxBodyBytes caps request bodies well above the query length limit.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	recommender       Recommender
	catalog           CatalogReader
	health            HealthChecker
	defaultMaxResults int
	logger            *zap.Logger
	errorHandlers     []errorHandler
}

// NewServer creates an HTTP API server. defaultMaxResults applies when a
// request omits max_results.
func NewServer(
	recommender Recommender,
	catalog CatalogReader,
	health HealthChecker,
	defaultMaxResults int,
	logger *zap.Logger,
) *Server {
	if defaultMaxResults <= 0 {
		defaultMaxResults = recommendation.DefaultMaxResults
	}
	s := &Server{
		recommender:       recommender,
		catalog:           catalog,
		health:            health,
		defaultMaxResults: defaultMaxResults,
		logger:            logger,
	}
	// Порядок важен: ErrRetrievalUnavailable оборачивает ErrVectorDimMismatch
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, codeRetrievalUnavailable),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	}
	return s
}

// Routes mounts all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/recommend", s.Recommend)
	r.Post("/recommend", s.Recommend)
	r.Get("/api/v1/assessments/{id}", s.GetAssessment)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Recommend handles POST /api/v1/recommend and POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var body RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: unexpected data after JSON object")
		return
	}

	maxResults := s.defaultMaxResults
	if body.MaxResults != nil {
		maxResults = *body.MaxResults
	}

	req, err := recommendation.NewRequest(body.Query, maxResults, s.recommender.Ceiling())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.recommender.Recommend(ctx, req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, recommendResponseFromDomain(resp))
}

// GetAssessment handles GET /api/v1/assessments/{id}.
func (s *Server) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.catalog.Get(id)
	if !ok {
		s.handleDomainError(w, r, fmt.Errorf("assessment %q: %w", id, domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, assessmentFromRecord(rec))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if tokens, used := usage.EmbeddingTokens(); used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
	if tokens := usage.GenerationTokens(); tokens > 0 {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees only the sentinel text, never the wrapped chain.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("path", r.URL.Path))
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
