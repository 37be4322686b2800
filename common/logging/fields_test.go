package logging

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttributes(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		want string
	}{
		{Service("alerting"), FieldService, "alerting"},
		{Tenant("acme"), FieldTenant, "acme"},
		{WatchID("acme/cpu"), FieldWatchID, "acme/cpu"},
		{Sorting("-severity"), FieldSorting, "-severity"},
		{UserID("u-1"), FieldUserID, "u-1"},
		{Method("POST"), FieldMethod, "POST"},
		{Path("/healthz"), FieldPath, "/healthz"},
		{Status(400), FieldStatus, "400"},
		{Duration(1500 * time.Millisecond), FieldDuration, "1500"},
		{Error(errors.New("boom")), FieldError, "boom"},
		{Error(nil), FieldError, ""},
		{WatchCount(7), FieldWatchCount, "7"},
		{JobID("job-1"), FieldJobID, "job-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}
