package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/incubatech/proposal-screener/internal/classify"
	"github.com/incubatech/proposal-screener/internal/common"
	"github.com/incubatech/proposal-screener/internal/extract"
	"github.com/incubatech/proposal-screener/internal/fetch"
	processor "github.com/incubatech/proposal-screener/internal/pipeline"
	"github.com/incubatech/proposal-screener/internal/repository"
	"github.com/incubatech/proposal-screener/internal/segment"
)

// Pipeline is the slice of the processor the HTTP layer calls.
type Pipeline interface {
	ClassifyText(ctx context.Context, text string) (*processor.Verdict, error)
	ClassifySections(ctx context.Context, sections segment.SectionMap) (*processor.Verdict, error)
	ClassifyURL(ctx context.Context, url string) (*processor.Verdict, error)
	ClassifyTenant(ctx context.Context, tenantID uuid.UUID) (*processor.Verdict, error)
}

// ModelAdmin exposes classifier lifecycle operations.
type ModelAdmin interface {
	Reload(ctx context.Context) error
	Loaded() bool
	BackendName() string
}

// Pinger is the database liveness probe used by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	// RequestTimeout bounds one request end to end, fetch included.
	RequestTimeout time.Duration
}

// Server is the REST surface over the screening pipeline.
type Server struct {
	pipeline Pipeline
	model    ModelAdmin
	tenants  repository.TenantRepository
	jobs     repository.JobRepository
	db       Pinger
	logger   *slog.Logger
	timeout  time.Duration
}

func New(cfg Config, pipeline Pipeline, model ModelAdmin, tenants repository.TenantRepository, jobs repository.JobRepository, db Pinger, logger *slog.Logger) *Server {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline: pipeline,
		model:    model,
		tenants:  tenants,
		jobs:     jobs,
		db:       db,
		logger:   logger,
		timeout:  timeout,
	}
}

// Router assembles the route tree with the global middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(propagateRequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/proposal", func(r chi.Router) {
			r.Post("/classify", s.handleClassifyText)
			r.Post("/classify/sections", s.handleClassifySections)
			r.Post("/classify/url", s.handleClassifyURL)
			r.Post("/classify/tenant/{tenantID}", s.handleClassifyTenant)
		})

		r.Post("/model/reload", s.handleModelReload)

		r.Get("/jobs", s.handleListJobs)

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", s.handleCreateTenant)
			r.Get("/", s.handleListTenants)
			r.Get("/{tenantID}", s.handleGetTenant)
			r.Put("/{tenantID}/proposal", s.handleSetProposalURL)
		})
	})

	return r
}

// propagateRequestID mirrors the chi request id into the shared context key so
// pipeline state logs carry the same id as the HTTP access logs.
func propagateRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rid := middleware.GetReqID(ctx); rid != "" {
			ctx = common.WithRequestID(ctx, rid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	s.writeJSON(w, status, resp)
}

// failure maps a pipeline error onto the response taxonomy and logs it.
func (s *Server) failure(w http.ResponseWriter, action string, err error) {
	status := statusForError(err)
	s.logger.Warn(action+" failed", "status", status, "error", err)
	s.writeError(w, status, action+" failed", err)
}

func statusForError(err error) int {
	var fe *fetch.Error
	var xe *extract.Error
	switch {
	case errors.Is(err, processor.ErrTenantNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, classify.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.As(err, &fe):
		return http.StatusBadGateway
	case errors.As(err, &xe):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
