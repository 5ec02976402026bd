// Package httptransport exposes the loan application operations over HTTP.
// Handlers only translate requests and results; the orchestrator owns the
// behavior.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"loan-intake/internal/common/config"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/intake"
	"loan-intake/internal/loanapp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LoanService is the caller surface the handlers need.
type LoanService interface {
	Submit(ctx context.Context, applicantID string, upload intake.Upload) *loanapp.SubmitResult
	List(ctx context.Context, applicantID *string) *loanapp.ListResult
	UpdateStatus(ctx context.Context, applicationID int64, status string) *loanapp.UpdateResult
	Get(ctx context.Context, applicationID int64) *loanapp.GetResult
}

// CheckFunc reports whether a dependency is ready to serve.
type CheckFunc func(ctx context.Context) error

type Handler struct {
	svc       LoanService
	checks    map[string]CheckFunc
	maxUpload int64
	logger    logger.Logger
}

type HandlerOption func(*Handler)

// WithMaxUploadSize sets the file size cap used to bound submit request
// bodies. Values <= 0 keep the default.
func WithMaxUploadSize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

func NewHandler(svc LoanService, log logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:       svc,
		checks:    make(map[string]CheckFunc),
		maxUpload: config.DefaultMaxFileSize,
		logger:    log.WithFields(map[string]interface{}{"component": "http"}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterCheck adds a named dependency to the readiness endpoint.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.checks[name] = check
}

// NewRouter wires the public endpoints with middleware. A zero timeout
// disables the per-request deadline.
func NewRouter(h *Handler, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(recovery(h.logger))
	r.Use(requestLogger(h.logger))
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Route("/api/loan-application", func(r chi.Router) {
		r.With(middleware.RequestSize(h.maxUpload+multipartOverhead)).Post("/submit", h.handleSubmit)
		r.Get("/list", h.handleList)
		r.Put("/update-status", h.handleUpdateStatus)
		r.Get("/{id}", h.handleGet)
	})

	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
