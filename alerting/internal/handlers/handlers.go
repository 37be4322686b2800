package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/auth"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/export"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/metrics"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/report"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/service"
	"github.com/telhawk-systems/telhawk-watch/common/audit"
	"github.com/telhawk-systems/telhawk-watch/common/httputil"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
	"github.com/telhawk-systems/telhawk-watch/common/middleware"
)

// Summarizer assembles watch summary reports.
type Summarizer interface {
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.Report, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	summarizer  Summarizer
	logger      *logging.Logger
	checks      map[string]HealthCheck
	maxPageSize int
	signer      *audit.Signer
	now         func() time.Time
}

func NewHandler(summarizer Summarizer, logger *logging.Logger, maxPageSize int) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if maxPageSize <= 0 {
		maxPageSize = 1000
	}
	return &Handler{
		summarizer:  summarizer,
		logger:      logger,
		checks:      map[string]HealthCheck{},
		maxPageSize: maxPageSize,
		now:         time.Now,
	}
}

// AddHealthCheck registers a dependency probe reported by HealthCheck.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// SignExports makes Export attach an HMAC signature of every file.
func (h *Handler) SignExports(s *audit.Signer) {
	h.signer = s
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	httputil.WriteJSON(w, status, map[string]interface{}{"status": overall, "components": components})
}

// Summary handles POST /api/v1/tenants/{tenant}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.summarize(w, r, metrics.TransportHTTP)
	if !ok {
		return
	}

	if page, paged := httputil.ParsePagination(r, 50, h.maxPageSize); paged {
		page.Total = len(rep.Watches)
		httputil.WriteDataPage(w, http.StatusOK, report.Page(*rep, page.Page, page.Limit), page)
		return
	}
	httputil.WriteData(w, http.StatusOK, rep)
}

// Export handles POST /api/v1/tenants/{tenant}/summary/export?format=xlsx|pdf
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, ok := h.summarize(w, r, metrics.TransportExport)
	if !ok {
		return
	}

	tenant := chi.URLParam(r, "tenant")
	body, err := export.Render(format, "Watch summary "+tenant, *rep)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render export", logging.Tenant(tenant), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to render export")
		return
	}
	generated := h.now().UTC()
	if h.signer != nil {
		w.Header().Set(audit.HeaderSignature, h.signer.Sign(middleware.GetRequestID(r.Context()), generated, tenant, body))
		w.Header().Set(audit.HeaderTimestamp, generated.Format(time.RFC3339Nano))
	}
	httputil.WriteAttachment(w, format.ContentType(), format.Filename(tenant, generated), body)
}

// summarize runs the request and writes the error response itself when it
// fails.
func (h *Handler) summarize(w http.ResponseWriter, r *http.Request, transport string) (*models.Report, bool) {
	tenant := chi.URLParam(r, "tenant")
	body, err := httputil.ReadBody(r)
	if err != nil {
		metrics.SummaryRequestsTotal.WithLabelValues(transport, metrics.OutcomeInvalid).Inc()
		status := http.StatusBadRequest
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httputil.WriteError(w, status, err.Error())
		return nil, false
	}

	rep, err := h.summarizer.Summarize(r.Context(), models.SummaryRequest{
		Tenant:   tenant,
		Sorting:  r.URL.Query().Get("sorting"),
		Criteria: body,
	})
	if err != nil {
		if service.IsValidation(err) {
			metrics.SummaryRequestsTotal.WithLabelValues(transport, metrics.OutcomeInvalid).Inc()
			httputil.WriteError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
		metrics.SummaryRequestsTotal.WithLabelValues(transport, metrics.OutcomeError).Inc()
		attrs := []any{logging.Tenant(tenant), slog.String("transport", transport), logging.Error(err)}
		if claims, ok := auth.ClaimsFrom(r.Context()); ok {
			attrs = append(attrs, logging.UserID(claims.UserID))
		}
		h.logger.ErrorContext(r.Context(), "failed to build watch summary", attrs...)
		httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to build watch summary for tenant %s", tenant))
		return nil, false
	}
	metrics.SummaryRequestsTotal.WithLabelValues(transport, metrics.OutcomeOK).Inc()
	return rep, true
}
