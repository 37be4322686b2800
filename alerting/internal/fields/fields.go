// Package fields maps the client-facing field names of the watch summary API
// onto the status document paths they are stored under.
//
// Two families of names exist. Literal names ("severity", "status_code", ...)
// are a fixed table. Per-action names follow the pattern
// "actions.<actionName>.<suffix>" where the action name is taken verbatim from
// the caller and the suffix is one of a fixed set. The registry is built once
// at package initialisation and never modified, so lookups are safe from any
// number of goroutines.
package fields

import (
	"regexp"
	"sort"
	"strings"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// Kind is the comparison type of a field.
type Kind int

const (
	// KindString compares lexicographically (keyword fields).
	KindString Kind = iota
	// KindNumeric compares by numeric value.
	KindNumeric
	// KindTemporal compares by instant.
	KindTemporal
	// KindBoolean orders false before true.
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// ActionsPrefix starts every per-action field name and document path.
const ActionsPrefix = "actions."

type literalField struct {
	path string
	kind Kind
	read func(w *models.WatchSummary) (Value, bool)
}

type actionField struct {
	target string
	kind   Kind
	read   func(a models.ActionSummary) (Value, bool)
}

// literalFields lists every fixed client field name.
var literalFields = map[string]literalField{
	"severity": {
		path: "last_status.severity.keyword",
		kind: KindString,
		read: func(w *models.WatchSummary) (Value, bool) { return stringValue(w.Severity) },
	},
	"status_code": {
		path: "last_status.code.keyword",
		kind: KindString,
		read: func(w *models.WatchSummary) (Value, bool) {
			if w.StatusCode == "" {
				return Value{}, false
			}
			return String(w.StatusCode), true
		},
	},
	"severity_details.level_numeric": {
		path: "last_execution.severity.level_numeric",
		kind: KindNumeric,
		read: func(w *models.WatchSummary) (Value, bool) {
			if w.SeverityDetails == nil {
				return Value{}, false
			}
			return Number(float64(w.SeverityDetails.LevelNumeric)), true
		},
	},
	"severity_details.current_value": {
		path: "last_execution.severity.value",
		kind: KindNumeric,
		read: func(w *models.WatchSummary) (Value, bool) {
			if w.SeverityDetails == nil {
				return Value{}, false
			}
			return Number(w.SeverityDetails.CurrentValue), true
		},
	},
	"severity_details.threshold": {
		path: "last_execution.severity.threshold",
		kind: KindNumeric,
		read: func(w *models.WatchSummary) (Value, bool) {
			if w.SeverityDetails == nil {
				return Value{}, false
			}
			return Number(w.SeverityDetails.Threshold), true
		},
	},
}

// actionFields is keyed by the client suffix of "actions.<name>.<suffix>".
var actionFields = map[string]actionField{
	"triggered": {
		target: "last_triggered",
		kind:   KindTemporal,
		read:   func(a models.ActionSummary) (Value, bool) { return timeValue(a.Triggered) },
	},
	"checked": {
		target: "last_check",
		kind:   KindTemporal,
		read:   func(a models.ActionSummary) (Value, bool) { return timeValue(a.Checked) },
	},
	"execution": {
		target: "last_execution",
		kind:   KindTemporal,
		read:   func(a models.ActionSummary) (Value, bool) { return timeValue(a.Execution) },
	},
	"error": {
		target: "last_error",
		kind:   KindString,
		read:   func(a models.ActionSummary) (Value, bool) { return stringValue(a.Error) },
	},
	"check_result": {
		target: "check_result",
		kind:   KindBoolean,
		read:   func(a models.ActionSummary) (Value, bool) { return Bool(a.CheckResult), true },
	},
	"status_code": {
		target: "last_status.code.keyword",
		kind:   KindString,
		read: func(a models.ActionSummary) (Value, bool) {
			if a.StatusCode == "" {
				return Value{}, false
			}
			return String(a.StatusCode), true
		},
	},
	"status_details": {
		target: "last_status.detail.keyword",
		kind:   KindString,
		read:   func(a models.ActionSummary) (Value, bool) { return stringValue(a.StatusDetails) },
	},
}

// actionFieldPattern captures the action name and suffix. The name is greedy
// so action names containing dots resolve against the last segment.
var actionFieldPattern = regexp.MustCompile(`^actions\.(.+)\.(` + strings.Join(sortedKeys(actionFields), "|") + `)$`)

// Mapper is a resolved client field name.
type Mapper struct {
	name    string
	action  string
	literal *literalField
	perAct  *actionField
}

// FindFieldByName resolves a client field name. The second result is false
// when the name matches neither a literal field nor the per-action pattern.
func FindFieldByName(name string) (Mapper, bool) {
	if f, ok := literalFields[name]; ok {
		return Mapper{name: name, literal: &f}, true
	}
	m := actionFieldPattern.FindStringSubmatch(name)
	if m == nil {
		return Mapper{}, false
	}
	f := actionFields[m[2]]
	return Mapper{name: name, action: m[1], perAct: &f}, true
}

// Name returns the client field name the mapper was resolved from.
func (m Mapper) Name() string { return m.name }

// DocumentFieldName returns the status document path of the field.
// Per-action paths embed the caller's action name unchanged.
func (m Mapper) DocumentFieldName() string {
	switch {
	case m.literal != nil:
		return m.literal.path
	case m.perAct != nil:
		return ActionsPrefix + m.action + "." + m.perAct.target
	default:
		return ""
	}
}

// Kind returns the comparison type of the field.
func (m Mapper) Kind() Kind {
	switch {
	case m.literal != nil:
		return m.literal.kind
	case m.perAct != nil:
		return m.perAct.kind
	default:
		return KindString
	}
}

// ActionName returns the action a per-action field refers to.
func (m Mapper) ActionName() (string, bool) {
	return m.action, m.perAct != nil
}

// Value reads the field from a summary row. The second result is false when
// the row does not carry the field, including rows without the named action.
func (m Mapper) Value(w *models.WatchSummary) (Value, bool) {
	switch {
	case m.literal != nil:
		return m.literal.read(w)
	case m.perAct != nil:
		a, ok := w.Action(m.action)
		if !ok {
			return Value{}, false
		}
		return m.perAct.read(a)
	default:
		return Value{}, false
	}
}

// LiteralNames returns the literal client field names in sorted order.
func LiteralNames() []string {
	return sortedKeys(literalFields)
}

// ActionSuffixes returns the per-action field suffixes in sorted order.
func ActionSuffixes() []string {
	return sortedKeys(actionFields)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
