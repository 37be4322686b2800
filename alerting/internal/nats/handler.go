package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/metrics"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/service"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
	"github.com/telhawk-systems/telhawk-watch/common/messaging"
	"github.com/telhawk-systems/telhawk-watch/common/middleware"
)

// Summarizer assembles watch summary reports.
type Summarizer interface {
	Summarize(ctx context.Context, req models.SummaryRequest) (*models.Report, error)
}

// CacheInvalidator drops cached allow-lists of a tenant.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, tenant string) error
}

// Handler processes NATS messages for summary requests.
type Handler struct {
	client      messaging.Client
	svc         Summarizer
	invalidator CacheInvalidator
	subs        []messaging.Subscription
	logger      *logging.Logger
}

// NewHandler creates a new NATS handler for summary requests.
func NewHandler(client messaging.Client, svc Summarizer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		client: client,
		svc:    svc,
		logger: logger.With(slog.String(logging.FieldComponent, "nats-handler")),
	}
}

// InvalidateOnSeed makes Start also listen for seed notifications and drop
// the cached allow-list of the seeded tenant. Call before Start.
func (h *Handler) InvalidateOnSeed(inv CacheInvalidator) {
	h.invalidator = inv
}

// Start joins the summary worker queue group.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.client.QueueSubscribe(
		messaging.SubjectAlertingSummaryQuery,
		messaging.QueueSummaryWorkers,
		h.handleSummaryJob,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to summary jobs: %w", err)
	}
	h.subs = append(h.subs, sub)

	if h.invalidator != nil {
		seeded := messaging.AnyTenant(messaging.SubjectAlertingSummarySeeded)
		sub, err := h.client.Subscribe(seeded, h.handleSeeded)
		if err != nil {
			_ = h.Stop()
			return fmt.Errorf("failed to subscribe to seed notifications: %w", err)
		}
		h.subs = append(h.subs, sub)
	}

	h.logger.InfoContext(ctx, "NATS handler started",
		slog.String("subject", messaging.SubjectAlertingSummaryQuery),
		slog.String("queue_group", messaging.QueueSummaryWorkers))
	return nil
}

// Stop unsubscribes from all NATS subjects.
func (h *Handler) Stop() error {
	h.logger.Info("Stopping NATS handler")
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("Failed to unsubscribe", logging.Error(err))
		}
	}
	h.subs = nil
	return nil
}

func (h *Handler) handleSummaryJob(ctx context.Context, msg *messaging.Message) error {
	var req SummaryJobRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportNATS, metrics.OutcomeInvalid).Inc()
		h.logger.ErrorContext(ctx, "Failed to unmarshal summary job request", logging.Error(err))
		return h.reply(ctx, msg, SummaryJobResponse{Error: "malformed request", Invalid: true})
	}
	if req.JobID == "" {
		req.JobID = uuid.NewString()
	}
	ctx = middleware.WithRequestID(ctx, req.JobID)

	start := time.Now()
	rep, err := h.svc.Summarize(ctx, models.SummaryRequest{
		Tenant:   req.Tenant,
		Sorting:  req.Sorting,
		Criteria: req.Criteria,
	})

	resp := SummaryJobResponse{
		JobID:  req.JobID,
		TookMs: time.Since(start).Milliseconds(),
	}
	switch {
	case err == nil:
		metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportNATS, metrics.OutcomeOK).Inc()
		resp.Success = true
		resp.Watches = rep.Watches
		h.logger.InfoContext(ctx, "Summary job completed",
			logging.JobID(req.JobID), logging.Tenant(req.Tenant),
			logging.WatchCount(len(rep.Watches)), slog.Int64("took_ms", resp.TookMs))
	case service.IsValidation(err):
		metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportNATS, metrics.OutcomeInvalid).Inc()
		resp.Error = err.Error()
		resp.Invalid = true
	default:
		metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportNATS, metrics.OutcomeError).Inc()
		resp.Error = fmt.Sprintf("Failed to build watch summary for tenant %s", req.Tenant)
		h.logger.ErrorContext(ctx, "Summary job failed",
			logging.JobID(req.JobID), logging.Tenant(req.Tenant), logging.Error(err))
	}
	return h.reply(ctx, msg, resp)
}

func (h *Handler) reply(ctx context.Context, msg *messaging.Message, resp SummaryJobResponse) error {
	if resp.Watches == nil {
		resp.Watches = []models.WatchSummary{}
	}
	err := messaging.Reply(ctx, h.client, msg, resp)
	if errors.Is(err, messaging.ErrNoReplySubject) {
		h.logger.WarnContext(ctx, "Summary job has no reply subject", logging.JobID(resp.JobID))
		return nil
	}
	return err
}

func (h *Handler) handleSeeded(ctx context.Context, msg *messaging.Message) error {
	var note SeedNotification
	if err := json.Unmarshal(msg.Data, &note); err != nil {
		h.logger.WarnContext(ctx, "Ignoring malformed seed notification",
			slog.String("subject", msg.Subject), logging.Error(err))
		return nil
	}
	if want := messaging.TenantSubject(messaging.SubjectAlertingSummarySeeded, note.Tenant); note.Tenant == "" || msg.Subject != want {
		h.logger.WarnContext(ctx, "Ignoring seed notification for mismatched tenant",
			slog.String("subject", msg.Subject), logging.Tenant(note.Tenant))
		return nil
	}
	if err := h.invalidator.Invalidate(ctx, note.Tenant); err != nil {
		h.logger.ErrorContext(ctx, "Failed to invalidate allow-list cache",
			logging.Tenant(note.Tenant), logging.Error(err))
		return err
	}
	h.logger.InfoContext(ctx, "Invalidated allow-list cache after seeding",
		logging.Tenant(note.Tenant), logging.WatchCount(note.Watches))
	return nil
}
