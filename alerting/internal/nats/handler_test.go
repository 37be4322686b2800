package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/service"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/sorting"
	"github.com/telhawk-systems/telhawk-watch/common/messaging"
	"github.com/telhawk-systems/telhawk-watch/common/middleware"
)

type fakeSub struct {
	subject      string
	unsubscribed bool
}

func (s *fakeSub) Unsubscribe() error { s.unsubscribed = true; return nil }
func (s *fakeSub) Subject() string    { return s.subject }
func (s *fakeSub) IsValid() bool      { return !s.unsubscribed }

type fakeClient struct {
	handlers  map[string]messaging.MessageHandler
	queues    map[string]string
	published map[string][]byte
	subs      []*fakeSub
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:  map[string]messaging.MessageHandler{},
		queues:    map[string]string{},
		published: map[string][]byte{},
	}
}

func (f *fakeClient) Publish(_ context.Context, subject string, data []byte) error {
	f.published[subject] = data
	return nil
}

func (f *fakeClient) Request(context.Context, string, []byte, time.Duration) (*messaging.Message, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	return f.QueueSubscribe(subject, "", handler)
}

func (f *fakeClient) QueueSubscribe(subject, queue string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	f.handlers[subject] = handler
	f.queues[subject] = queue
	sub := &fakeSub{subject: subject}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeClient) Close() error      { return nil }
func (f *fakeClient) Drain() error      { return nil }
func (f *fakeClient) IsConnected() bool { return true }

type stubSummarizer struct {
	got       models.SummaryRequest
	requestID string
	report    *models.Report
	err       error
}

func (s *stubSummarizer) Summarize(ctx context.Context, req models.SummaryRequest) (*models.Report, error) {
	s.got = req
	s.requestID = middleware.GetRequestID(ctx)
	return s.report, s.err
}

func deliver(t *testing.T, client *fakeClient, data string) SummaryJobResponse {
	t.Helper()
	handler := client.handlers[messaging.SubjectAlertingSummaryQuery]
	require.NotNil(t, handler)
	require.NoError(t, handler(context.Background(), &messaging.Message{
		Subject: messaging.SubjectAlertingSummaryQuery,
		Data:    []byte(data),
		Reply:   "_INBOX.test",
	}))

	var resp SummaryJobResponse
	require.NoError(t, json.Unmarshal(client.published["_INBOX.test"], &resp))
	return resp
}

func TestHandler_StartStop(t *testing.T) {
	client := newFakeClient()
	h := NewHandler(client, &stubSummarizer{}, nil)

	require.NoError(t, h.Start(context.Background()))
	assert.Equal(t, messaging.QueueSummaryWorkers, client.queues[messaging.SubjectAlertingSummaryQuery])

	require.NoError(t, h.Stop())
	require.Len(t, client.subs, 1)
	assert.True(t, client.subs[0].unsubscribed)
}

func TestHandler_Success(t *testing.T) {
	client := newFakeClient()
	svc := &stubSummarizer{report: &models.Report{Watches: []models.WatchSummary{{WatchID: "t/a"}}}}
	h := NewHandler(client, svc, nil)
	require.NoError(t, h.Start(context.Background()))

	resp := deliver(t, client, `{"job_id":"job-1","tenant":"acme","sorting":"-severity","criteria":{"actions":["email"]}}`)

	assert.True(t, resp.Success)
	assert.Equal(t, "job-1", resp.JobID)
	require.Len(t, resp.Watches, 1)
	assert.Equal(t, "t/a", resp.Watches[0].WatchID)

	assert.Equal(t, "acme", svc.got.Tenant)
	assert.Equal(t, "-severity", svc.got.Sorting)
	assert.JSONEq(t, `{"actions":["email"]}`, string(svc.got.Criteria))
	assert.Equal(t, "job-1", svc.requestID)
}

func TestHandler_ValidationError(t *testing.T) {
	client := newFakeClient()
	svc := &stubSummarizer{err: &service.ValidationError{Err: sorting.ErrUnknownField}}
	h := NewHandler(client, svc, nil)
	require.NoError(t, h.Start(context.Background()))

	resp := deliver(t, client, `{"job_id":"job-2","tenant":"acme","sorting":"bogus"}`)

	assert.False(t, resp.Success)
	assert.True(t, resp.Invalid)
	assert.Equal(t, "Cannot sort by unknown field", resp.Error)
	assert.NotNil(t, resp.Watches)
}

func TestHandler_InternalError(t *testing.T) {
	client := newFakeClient()
	svc := &stubSummarizer{err: errors.New("connection reset")}
	h := NewHandler(client, svc, nil)
	require.NoError(t, h.Start(context.Background()))

	resp := deliver(t, client, `{"job_id":"job-3","tenant":"acme"}`)

	assert.False(t, resp.Success)
	assert.False(t, resp.Invalid)
	assert.Equal(t, "Failed to build watch summary for tenant acme", resp.Error)
}

func TestHandler_MalformedRequest(t *testing.T) {
	client := newFakeClient()
	svc := &stubSummarizer{}
	h := NewHandler(client, svc, nil)
	require.NoError(t, h.Start(context.Background()))

	resp := deliver(t, client, `{not json`)

	assert.False(t, resp.Success)
	assert.True(t, resp.Invalid)
	assert.Empty(t, svc.got.Tenant)
}

func TestHandler_AssignsJobID(t *testing.T) {
	client := newFakeClient()
	svc := &stubSummarizer{report: &models.Report{}}
	h := NewHandler(client, svc, nil)
	require.NoError(t, h.Start(context.Background()))

	resp := deliver(t, client, `{"tenant":"acme"}`)

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, resp.JobID, svc.requestID)
	assert.NotNil(t, resp.Watches)
}

func TestHandler_NoReplySubject(t *testing.T) {
	client := newFakeClient()
	h := NewHandler(client, &stubSummarizer{report: &models.Report{}}, nil)
	require.NoError(t, h.Start(context.Background()))

	err := client.handlers[messaging.SubjectAlertingSummaryQuery](context.Background(), &messaging.Message{
		Data: []byte(`{"tenant":"acme"}`),
	})
	assert.NoError(t, err)
	assert.Empty(t, client.published)
}

type fakeInvalidator struct {
	tenants []string
	err     error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, tenant string) error {
	f.tenants = append(f.tenants, tenant)
	return f.err
}

func TestHandler_InvalidateOnSeed(t *testing.T) {
	client := newFakeClient()
	inv := &fakeInvalidator{}
	h := NewHandler(client, &stubSummarizer{}, nil)
	h.InvalidateOnSeed(inv)
	require.NoError(t, h.Start(context.Background()))

	seeded := messaging.AnyTenant(messaging.SubjectAlertingSummarySeeded)
	handler := client.handlers[seeded]
	require.NotNil(t, handler, "subscribed to %s", seeded)
	assert.Empty(t, client.queues[seeded])

	tests := []struct {
		name    string
		subject string
		data    string
		want    []string
	}{
		{"seeded tenant", "alerting.summary.seeded.acme", `{"tenant":"acme","watches":25,"definitions":25}`, []string{"acme"}},
		{"tenant differs from subject", "alerting.summary.seeded.acme", `{"tenant":"globex"}`, nil},
		{"missing tenant", "alerting.summary.seeded.acme", `{"watches":3}`, nil},
		{"malformed", "alerting.summary.seeded.acme", `not json`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv.tenants = nil
			require.NoError(t, handler(context.Background(), &messaging.Message{Subject: tt.subject, Data: []byte(tt.data)}))
			assert.Equal(t, tt.want, inv.tenants)
		})
	}

	require.NoError(t, h.Stop())
	require.Len(t, client.subs, 2)
	for _, sub := range client.subs {
		assert.True(t, sub.unsubscribed, sub.subject)
	}
}

func TestHandler_InvalidateOnSeed_Error(t *testing.T) {
	client := newFakeClient()
	h := NewHandler(client, &stubSummarizer{}, nil)
	h.InvalidateOnSeed(&fakeInvalidator{err: errors.New("redis down")})
	require.NoError(t, h.Start(context.Background()))

	handler := client.handlers[messaging.AnyTenant(messaging.SubjectAlertingSummarySeeded)]
	err := handler(context.Background(), &messaging.Message{
		Subject: "alerting.summary.seeded.acme",
		Data:    []byte(`{"tenant":"acme"}`),
	})
	assert.ErrorContains(t, err, "redis down")
}
