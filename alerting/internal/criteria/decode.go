// Package criteria decodes, validates and evaluates the filter body of a
// watch summary request.
package criteria

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// ErrIncorrectCriteria is returned for bodies that cannot be decoded or whose
// clauses contradict each other.
var ErrIncorrectCriteria = errors.New("Incorrect search criteria")

// Top level keys of the request body.
const (
	KeyStatusCodes             = "status_codes"
	KeySeverities              = "severities"
	KeyWatchID                 = "watch_id"
	KeyActions                 = "actions"
	KeyLevelNumericEqualTo     = "level_numeric_equal_to"
	KeyLevelNumericGreaterThan = "level_numeric_greater_than"
	KeyLevelNumericLessThan    = "level_numeric_less_than"
)

type actionSetter func(c *models.ActionCriteria, raw json.RawMessage) error

var actionProperties = map[string]actionSetter{
	"triggeredAfter":  timeSetter(func(c *models.ActionCriteria) **time.Time { return &c.TriggeredAfter }),
	"triggeredBefore": timeSetter(func(c *models.ActionCriteria) **time.Time { return &c.TriggeredBefore }),
	"checkedAfter":    timeSetter(func(c *models.ActionCriteria) **time.Time { return &c.CheckedAfter }),
	"checkedBefore":   timeSetter(func(c *models.ActionCriteria) **time.Time { return &c.CheckedBefore }),
	"executionAfter":  timeSetter(func(c *models.ActionCriteria) **time.Time { return &c.ExecutionAfter }),
	"executionBefore": timeSetter(func(c *models.ActionCriteria) **time.Time { return &c.ExecutionBefore }),
	"statusCode": func(c *models.ActionCriteria, raw json.RawMessage) error {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		c.StatusCode = &s
		return nil
	},
	"checkResult": func(c *models.ActionCriteria, raw json.RawMessage) error {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		c.CheckResult = &b
		return nil
	},
}

var actionKeyPattern = regexp.MustCompile(`^actions\.(.+)\.(` + strings.Join(propertyNames(), "|") + `)$`)

// Decode parses a request body. An empty body or JSON null yields empty
// criteria. Unknown keys and values of the wrong JSON type are rejected.
func Decode(body []byte) (*models.SearchCriteria, error) {
	c := &models.SearchCriteria{}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return c, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object: %v", ErrIncorrectCriteria, err)
	}

	// The first failing key in sorted order is reported.
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		value := raw[key]
		if isNull(value) {
			continue
		}
		if err := decodeKey(c, key, value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIncorrectCriteria, key, err)
		}
	}
	return c, nil
}

func decodeKey(c *models.SearchCriteria, key string, value json.RawMessage) error {
	switch key {
	case KeyStatusCodes:
		return json.Unmarshal(value, &c.StatusCodes)
	case KeySeverities:
		return json.Unmarshal(value, &c.Severities)
	case KeyActions:
		return json.Unmarshal(value, &c.Actions)
	case KeyWatchID:
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return err
		}
		c.WatchID = &s
		return nil
	case KeyLevelNumericEqualTo:
		return decodeInt(value, &c.LevelNumericEqualTo)
	case KeyLevelNumericGreaterThan:
		return decodeInt(value, &c.LevelNumericGreaterThan)
	case KeyLevelNumericLessThan:
		return decodeInt(value, &c.LevelNumericLessThan)
	}

	m := actionKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return errors.New("unknown criteria field")
	}
	if c.ActionCriteria == nil {
		c.ActionCriteria = make(map[string]*models.ActionCriteria)
	}
	ac, ok := c.ActionCriteria[m[1]]
	if !ok {
		ac = &models.ActionCriteria{}
		c.ActionCriteria[m[1]] = ac
	}
	return actionProperties[m[2]](ac, value)
}

func decodeInt(raw json.RawMessage, dst **int) error {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return err
	}
	*dst = &n
	return nil
}

func timeSetter(field func(c *models.ActionCriteria) **time.Time) actionSetter {
	return func(c *models.ActionCriteria, raw json.RawMessage) error {
		t, err := parseTimestamp(raw)
		if err != nil {
			return err
		}
		*field(c) = &t
		return nil
	}
}

// parseTimestamp accepts an RFC 3339 string or epoch milliseconds.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
		}
		return t, nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, errors.New("timestamp must be an RFC 3339 string or epoch milliseconds")
	}
	return time.UnixMilli(ms).UTC(), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func propertyNames() []string {
	return slices.Sorted(maps.Keys(actionProperties))
}
