package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/auth"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/handlers"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/metrics"
	"github.com/telhawk-systems/telhawk-watch/common/httputil"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
	"github.com/telhawk-systems/telhawk-watch/common/middleware"
)

// Options configures the router.
type Options struct {
	Logger      *logging.Logger
	CORSOrigins []string
	// Verifier enables bearer token checks when set.
	Verifier *auth.Verifier
	Timeout  time.Duration
}

// NewRouter constructs the chi router with the summary API routes registered.
func NewRouter(h *handlers.Handler, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(opts.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins)))

	r.Get("/healthz", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/tenants/{tenant}", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(opts.Timeout))
		r.Use(RequireTenant(opts.Verifier, opts.Logger))
		r.Post("/summary", h.Summary)
		r.Post("/summary/export", h.Export)
	})

	return r
}

// RequireTenant rejects callers whose token does not grant the {tenant} path
// parameter. A nil verifier disables the check.
func RequireTenant(v *auth.Verifier, logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := httputil.BearerToken(r)
			if !ok {
				metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportHTTP, metrics.OutcomeDenied).Inc()
				httputil.WriteError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			claims, err := v.Validate(token)
			if err != nil {
				metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportHTTP, metrics.OutcomeDenied).Inc()
				msg := auth.ErrInvalidToken.Error()
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = auth.ErrExpiredToken.Error()
				}
				httputil.WriteError(w, http.StatusUnauthorized, msg)
				return
			}

			tenant := chi.URLParam(r, "tenant")
			if !claims.Allows(tenant) {
				metrics.SummaryRequestsTotal.WithLabelValues(metrics.TransportHTTP, metrics.OutcomeDenied).Inc()
				logger.WarnContext(r.Context(), "tenant access denied",
					logging.UserID(claims.UserID), logging.Tenant(tenant))
				httputil.WriteError(w, http.StatusForbidden, auth.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func accessLog(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.WithContext(r.Context()).Log(r.Context(), level, "request completed",
				logging.Method(r.Method),
				logging.Path(r.URL.Path),
				logging.Status(ww.Status()),
				logging.Duration(time.Since(start)),
				slog.String("client_ip", httputil.GetClientIP(r)))
		})
	}
}
