package models

import "time"

// Watch and action status codes reported by the executor.
const (
	StatusActionExecuted  = "ACTION_EXECUTED"
	StatusActionThrottled = "ACTION_THROTTLED"
	StatusActionFailed    = "ACTION_FAILED"
	StatusNoAction        = "NO_ACTION"
	StatusExecutionFailed = "EXECUTION_FAILED"
)

// WatchSummary is one row of the operator summary report.
// Severity and SeverityDetails are either both set or both nil.
type WatchSummary struct {
	WatchID         string                   `json:"watch_id"`
	StatusCode      string                   `json:"status_code"`
	Severity        *string                  `json:"severity"`
	SeverityDetails *SeverityDetails         `json:"severity_details"`
	Description     *string                  `json:"description"`
	Actions         map[string]ActionSummary `json:"actions"`
	Reason          *string                  `json:"reason"`
}

// SeverityDetails describes the severity mapping outcome of the last run.
type SeverityDetails struct {
	Level        string  `json:"level"`
	LevelNumeric int     `json:"level_numeric"`
	CurrentValue float64 `json:"current_value"`
	Threshold    float64 `json:"threshold"`
}

// ActionSummary is the last known state of one action of a watch.
type ActionSummary struct {
	Triggered     *time.Time `json:"triggered"`
	Checked       *time.Time `json:"checked"`
	Execution     *time.Time `json:"execution"`
	CheckResult   bool       `json:"check_result"`
	Error         *string    `json:"error"`
	StatusCode    string     `json:"status_code"`
	StatusDetails *string    `json:"status_details"`
}

// WatchActionNames lists the actions a watch currently defines.
// Names keep their definition order and are unique.
type WatchActionNames struct {
	WatchID            string   `json:"watch_id"`
	AllowedActionNames []string `json:"allowed_action_names"`
}

// Report is the assembled summary payload.
type Report struct {
	Watches []WatchSummary `json:"watches"`
}

// Clone returns a copy of the summary whose action map can be modified
// without affecting the receiver.
func (w WatchSummary) Clone() WatchSummary {
	out := w
	if w.Actions != nil {
		out.Actions = make(map[string]ActionSummary, len(w.Actions))
		for name, action := range w.Actions {
			out.Actions[name] = action
		}
	}
	return out
}

// Action returns the named action and whether the watch owns it.
func (w *WatchSummary) Action(name string) (ActionSummary, bool) {
	a, ok := w.Actions[name]
	return a, ok
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
