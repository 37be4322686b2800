package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/auth"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/handlers"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/common/middleware"
)

type stubSummarizer struct {
	calls int
}

func (s *stubSummarizer) Summarize(context.Context, models.SummaryRequest) (*models.Report, error) {
	s.calls++
	return &models.Report{Watches: []models.WatchSummary{}}, nil
}

func newTestRouter(t *testing.T, verifier *auth.Verifier) (http.Handler, *stubSummarizer) {
	t.Helper()
	s := &stubSummarizer{}
	h := handlers.NewHandler(s, nil, 100)
	return NewRouter(h, Options{CORSOrigins: []string{"https://console.example.com"}, Verifier: verifier}), s
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_SummaryWithoutAuth(t *testing.T) {
	router, s := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/tenants/acme/summary", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.calls)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tenants/acme/summary", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tenants/acme/summary", nil)
	req.Header.Set("Origin", "https://console.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://console.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireTenant(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	acme, err := verifier.Issue("user-1", []string{"acme"}, time.Hour)
	require.NoError(t, err)
	admin, err := verifier.Issue("admin", []string{auth.AllTenants}, time.Hour)
	require.NoError(t, err)
	other, err := auth.NewVerifier("other-secret").Issue("user-1", []string{"acme"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		tenant string
		want   int
	}{
		{"missing token", "", "acme", http.StatusUnauthorized},
		{"wrong signature", other, "acme", http.StatusUnauthorized},
		{"granted tenant", acme, "acme", http.StatusOK},
		{"other tenant", acme, "globex", http.StatusForbidden},
		{"wildcard", admin, "globex", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, s := newTestRouter(t, verifier)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/tenants/"+tt.tenant+"/summary", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, 1, s.calls)
			} else {
				assert.Zero(t, s.calls)
			}
		})
	}
}
