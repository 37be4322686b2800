package logging

import (
	"log/slog"
	"time"
)

// Field names shared by every component.
const (
	FieldService    = "service"
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldTenant     = "tenant"
	FieldWatchID    = "watch_id"
	FieldSorting    = "sorting"
	FieldUserID     = "user_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldWatchCount = "watch_count"
	FieldJobID      = "job_id"
)

func Service(name string) slog.Attr { return slog.String(FieldService, name) }

func Tenant(tenant string) slog.Attr { return slog.String(FieldTenant, tenant) }

func WatchID(id string) slog.Attr { return slog.String(FieldWatchID, id) }

// Sorting returns the raw sort expression of a request.
func Sorting(expr string) slog.Attr { return slog.String(FieldSorting, expr) }

func UserID(id string) slog.Attr { return slog.String(FieldUserID, id) }

func Method(method string) slog.Attr { return slog.String(FieldMethod, method) }

func Path(path string) slog.Attr { return slog.String(FieldPath, path) }

func Status(code int) slog.Attr { return slog.Int(FieldStatus, code) }

// Duration reports d in whole milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns the error attribute. A nil error is logged as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

func WatchCount(n int) slog.Attr { return slog.Int(FieldWatchCount, n) }

func JobID(id string) slog.Attr { return slog.String(FieldJobID, id) }
