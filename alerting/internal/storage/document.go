package storage

import (
	"time"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// statusDocument is the _source of one watch status document.
type statusDocument struct {
	WatchID       string                    `json:"watch_id"`
	Description   *string                   `json:"description,omitempty"`
	LastStatus    watchStatus               `json:"last_status"`
	LastExecution *executionDocument        `json:"last_execution,omitempty"`
	Actions       map[string]actionDocument `json:"actions,omitempty"`
}

type watchStatus struct {
	Code     string  `json:"code"`
	Severity *string `json:"severity,omitempty"`
	Detail   *string `json:"detail,omitempty"`
}

type executionDocument struct {
	Severity *severityDocument `json:"severity,omitempty"`
}

type severityDocument struct {
	Level        string  `json:"level"`
	LevelNumeric int     `json:"level_numeric"`
	Value        float64 `json:"value"`
	Threshold    float64 `json:"threshold"`
}

type actionDocument struct {
	LastTriggered *time.Time   `json:"last_triggered,omitempty"`
	LastCheck     *time.Time   `json:"last_check,omitempty"`
	LastExecution *time.Time   `json:"last_execution,omitempty"`
	LastError     *string      `json:"last_error,omitempty"`
	CheckResult   bool         `json:"check_result"`
	LastStatus    actionStatus `json:"last_status"`
}

type actionStatus struct {
	Code   string  `json:"code"`
	Detail *string `json:"detail,omitempty"`
}

// toSummary converts a stored document into a report row. id is the document
// _id and wins over a missing watch_id in the source. Severity is only
// reported together with its details.
func (d statusDocument) toSummary(id string) models.WatchSummary {
	w := models.WatchSummary{
		WatchID:     d.WatchID,
		StatusCode:  d.LastStatus.Code,
		Description: d.Description,
		Reason:      d.LastStatus.Detail,
		Actions:     make(map[string]models.ActionSummary, len(d.Actions)),
	}
	if w.WatchID == "" {
		w.WatchID = id
	}

	if d.LastExecution != nil && d.LastExecution.Severity != nil {
		sev := d.LastExecution.Severity
		w.SeverityDetails = &models.SeverityDetails{
			Level:        sev.Level,
			LevelNumeric: sev.LevelNumeric,
			CurrentValue: sev.Value,
			Threshold:    sev.Threshold,
		}
		level := sev.Level
		if d.LastStatus.Severity != nil {
			level = *d.LastStatus.Severity
		}
		w.Severity = &level
	}

	for name, a := range d.Actions {
		w.Actions[name] = models.ActionSummary{
			Triggered:     a.LastTriggered,
			Checked:       a.LastCheck,
			Execution:     a.LastExecution,
			CheckResult:   a.CheckResult,
			Error:         a.LastError,
			StatusCode:    a.LastStatus.Code,
			StatusDetails: a.LastStatus.Detail,
		}
	}
	return w
}

// fromSummary is the inverse of toSummary, used when writing status
// documents.
func fromSummary(w models.WatchSummary) statusDocument {
	d := statusDocument{
		WatchID:     w.WatchID,
		Description: w.Description,
		LastStatus: watchStatus{
			Code:     w.StatusCode,
			Severity: w.Severity,
			Detail:   w.Reason,
		},
	}
	if w.SeverityDetails != nil {
		d.LastExecution = &executionDocument{Severity: &severityDocument{
			Level:        w.SeverityDetails.Level,
			LevelNumeric: w.SeverityDetails.LevelNumeric,
			Value:        w.SeverityDetails.CurrentValue,
			Threshold:    w.SeverityDetails.Threshold,
		}}
	}
	if len(w.Actions) > 0 {
		d.Actions = make(map[string]actionDocument, len(w.Actions))
		for name, a := range w.Actions {
			d.Actions[name] = actionDocument{
				LastTriggered: a.Triggered,
				LastCheck:     a.Checked,
				LastExecution: a.Execution,
				LastError:     a.Error,
				CheckResult:   a.CheckResult,
				LastStatus:    actionStatus{Code: a.StatusCode, Detail: a.StatusDetails},
			}
		}
	}
	return d
}
