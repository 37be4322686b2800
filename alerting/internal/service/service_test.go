package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/cache"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/criteria"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/sorting"
	"github.com/telhawk-systems/telhawk-watch/common/logging"
)

// MockStore is a mock implementation of StatusStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FetchSources(ctx context.Context, tenant string, sorts []sorting.SortByField) ([][]models.WatchSummary, error) {
	args := m.Called(ctx, tenant, sorts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]models.WatchSummary), args.Error(1)
}

// MockDefinitions is a mock implementation of DefinitionSource
type MockDefinitions struct {
	mock.Mock
}

func (m *MockDefinitions) ListActionNames(ctx context.Context, tenant string) ([]models.WatchActionNames, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchActionNames), args.Error(1)
}

// MockCache is a mock implementation of AllowListCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, tenant string) ([]models.WatchActionNames, error) {
	args := m.Called(ctx, tenant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WatchActionNames), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, tenant string, defs []models.WatchActionNames) error {
	return m.Called(ctx, tenant, defs).Error(0)
}

func watch(id, severity string, level int, actions ...string) models.WatchSummary {
	w := models.WatchSummary{
		WatchID:         id,
		StatusCode:      models.StatusActionExecuted,
		Severity:        models.StringPtr(severity),
		SeverityDetails: &models.SeverityDetails{Level: severity, LevelNumeric: level},
		Actions:         map[string]models.ActionSummary{},
	}
	for _, name := range actions {
		w.Actions[name] = models.ActionSummary{StatusCode: models.StatusActionExecuted}
	}
	return w
}

func ids(r *models.Report) []string {
	out := make([]string, len(r.Watches))
	for i, w := range r.Watches {
		out[i] = w.WatchID
	}
	return out
}

func quietLogger() *logging.Logger {
	return logging.NewWithWriter(&bytes.Buffer{}, slog.LevelDebug, "json")
}

func TestSummarize(t *testing.T) {
	store := new(MockStore)
	defs := new(MockDefinitions)

	newest := []models.WatchSummary{
		watch("acme/cpu", "critical", 4, "email", "slack"),
		watch("acme/disk", "warning", 2, "email"),
	}
	older := []models.WatchSummary{
		watch("acme/cpu", "info", 1),
		watch("acme/mem", "error", 3, "pager"),
		watch("acme/net", "info", 1),
	}
	store.On("FetchSources", mock.Anything, "acme", mock.Anything).Return([][]models.WatchSummary{newest, older}, nil)
	defs.On("ListActionNames", mock.Anything, "acme").Return([]models.WatchActionNames{
		{WatchID: "acme/cpu", AllowedActionNames: []string{"email"}},
		{WatchID: "acme/mem", AllowedActionNames: []string{}},
	}, nil)

	svc := NewSummaryService(store, defs, WithLogger(quietLogger()))
	r, err := svc.Summarize(context.Background(), models.SummaryRequest{
		Tenant:   "acme",
		Sorting:  "-severity_details.level_numeric",
		Criteria: []byte(`{"level_numeric_greater_than": 1}`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"acme/cpu", "acme/mem", "acme/disk"}, ids(r))
	assert.Equal(t, "critical", *r.Watches[0].Severity, "newest source wins")
	assert.Len(t, r.Watches[0].Actions, 1)
	assert.Contains(t, r.Watches[0].Actions, "email")
	assert.Empty(t, r.Watches[1].Actions)
	assert.Contains(t, r.Watches[2].Actions, "email", "watch without definition is untouched")

	assert.Len(t, newest[0].Actions, 2, "store rows are not mutated")
	store.AssertExpectations(t)
	defs.AssertExpectations(t)
}

func TestSummarize_ValidationFailsBeforeIO(t *testing.T) {
	tests := []struct {
		name    string
		req     models.SummaryRequest
		message string
		target  error
	}{
		{
			name:    "unknown sort field",
			req:     models.SummaryRequest{Tenant: "acme", Sorting: "-colour"},
			message: "Cannot sort by unknown field colour",
			target:  sorting.ErrUnknownField,
		},
		{
			name:   "bare sign",
			req:    models.SummaryRequest{Tenant: "acme", Sorting: "+"},
			target: sorting.ErrMalformedTerm,
		},
		{
			name:    "contradictory levels",
			req:     models.SummaryRequest{Tenant: "acme", Criteria: []byte(`{"level_numeric_equal_to": 3, "level_numeric_less_than": 5}`)},
			message: "Incorrect search criteria",
			target:  criteria.ErrIncorrectCriteria,
		},
		{
			name:    "malformed body",
			req:     models.SummaryRequest{Tenant: "acme", Criteria: []byte(`{"status_codes": 1}`)},
			message: "Incorrect search criteria",
			target:  criteria.ErrIncorrectCriteria,
		},
		{
			name:    "bad tenant",
			req:     models.SummaryRequest{Tenant: "../etc"},
			message: "invalid tenant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockStore)
			defs := new(MockDefinitions)
			svc := NewSummaryService(store, defs, WithLogger(quietLogger()))

			_, err := svc.Summarize(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			store.AssertNotCalled(t, "FetchSources", mock.Anything, mock.Anything, mock.Anything)
			defs.AssertNotCalled(t, "ListActionNames", mock.Anything, mock.Anything)
		})
	}
}

func TestSummarize_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("FetchSources", mock.Anything, "acme", mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewSummaryService(store, nil, WithLogger(quietLogger()))
	_, err := svc.Summarize(context.Background(), models.SummaryRequest{Tenant: "acme"})

	require.Error(t, err)
	assert.False(t, IsValidation(err))
}

func TestSummarize_DefinitionsUnavailable(t *testing.T) {
	store := new(MockStore)
	defs := new(MockDefinitions)
	store.On("FetchSources", mock.Anything, "acme", mock.Anything).
		Return([][]models.WatchSummary{{watch("acme/cpu", "info", 1, "email", "slack")}}, nil)
	defs.On("ListActionNames", mock.Anything, "acme").Return(nil, errors.New("db down"))

	svc := NewSummaryService(store, defs, WithLogger(quietLogger()))
	r, err := svc.Summarize(context.Background(), models.SummaryRequest{Tenant: "acme"})

	require.NoError(t, err)
	assert.Len(t, r.Watches[0].Actions, 2)
}

func TestSummarize_EmptyTenant(t *testing.T) {
	store := new(MockStore)
	store.On("FetchSources", mock.Anything, "acme", mock.Anything).Return([][]models.WatchSummary{}, nil)

	r, err := NewSummaryService(store, nil, WithLogger(quietLogger())).
		Summarize(context.Background(), models.SummaryRequest{Tenant: "acme", Sorting: "severity"})

	require.NoError(t, err)
	assert.NotNil(t, r.Watches)
	assert.Empty(t, r.Watches)
}

func TestAllowList_Cache(t *testing.T) {
	allow := []models.WatchActionNames{{WatchID: "acme/cpu", AllowedActionNames: []string{"email"}}}

	t.Run("hit skips definitions", func(t *testing.T) {
		c := new(MockCache)
		defs := new(MockDefinitions)
		c.On("Get", mock.Anything, "acme").Return(allow, nil)

		svc := NewSummaryService(new(MockStore), defs, WithCache(c), WithLogger(quietLogger()))
		assert.Equal(t, allow, svc.allowList(context.Background(), "acme"))
		defs.AssertNotCalled(t, "ListActionNames", mock.Anything, mock.Anything)
	})

	t.Run("miss loads and fills", func(t *testing.T) {
		c := new(MockCache)
		defs := new(MockDefinitions)
		c.On("Get", mock.Anything, "acme").Return(nil, cache.ErrMiss)
		c.On("Set", mock.Anything, "acme", allow).Return(nil)
		defs.On("ListActionNames", mock.Anything, "acme").Return(allow, nil)

		svc := NewSummaryService(new(MockStore), defs, WithCache(c), WithLogger(quietLogger()))
		assert.Equal(t, allow, svc.allowList(context.Background(), "acme"))
		c.AssertExpectations(t)
	})

	t.Run("cache failure falls back", func(t *testing.T) {
		c := new(MockCache)
		defs := new(MockDefinitions)
		c.On("Get", mock.Anything, "acme").Return(nil, errors.New("redis down"))
		c.On("Set", mock.Anything, "acme", allow).Return(errors.New("redis down"))
		defs.On("ListActionNames", mock.Anything, "acme").Return(allow, nil)

		svc := NewSummaryService(new(MockStore), defs, WithCache(c), WithLogger(quietLogger()))
		assert.Equal(t, allow, svc.allowList(context.Background(), "acme"))
	})
}
