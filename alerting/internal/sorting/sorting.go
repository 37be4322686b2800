// Package sorting parses the summary sort expression and orders summary rows
// by the resulting keys.
package sorting

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/fields"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

var (
	// ErrUnknownField is returned for a term naming no known field.
	ErrUnknownField = errors.New("Cannot sort by unknown field")
	// ErrMalformedTerm is returned for a bare sign with no field name.
	ErrMalformedTerm = errors.New("Incorrect sort expression")
)

// SortByField is one key of a parsed sort expression.
type SortByField struct {
	Field     fields.Mapper
	Ascending bool
}

// DocumentFieldName returns the status document path the key sorts on.
func (s SortByField) DocumentFieldName() string {
	return s.Field.DocumentFieldName()
}

// String renders the key back in expression form.
func (s SortByField) String() string {
	if s.Ascending {
		return "+" + s.Field.Name()
	}
	return "-" + s.Field.Name()
}

// Parse turns a comma separated expression such as
// "-severity,+status_code,severity_details.level_numeric" into sort keys.
// A term without a sign sorts ascending. A blank expression yields no keys.
func Parse(expr string) ([]SortByField, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	terms := strings.Split(expr, ",")
	out := make([]SortByField, 0, len(terms))
	for _, raw := range terms {
		term := strings.TrimSpace(raw)
		if term == "" {
			continue
		}

		ascending := true
		switch term[0] {
		case '+':
			term = term[1:]
		case '-':
			ascending = false
			term = term[1:]
		}
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("%w: sign %q without field name", ErrMalformedTerm, strings.TrimSpace(raw))
		}

		m, ok := fields.FindFieldByName(term)
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrUnknownField, term)
		}
		out = append(out, SortByField{Field: m, Ascending: ascending})
	}
	return out, nil
}

// Sort orders rows in place. The first key is primary and later keys break
// ties. Rows missing a key's field go after every row that has it, whatever
// the direction. Equal rows keep their relative order.
func Sort(rows []models.WatchSummary, keys []SortByField) {
	if len(keys) == 0 || len(rows) < 2 {
		return
	}
	slices.SortStableFunc(rows, func(a, b models.WatchSummary) int {
		return compareRows(&a, &b, keys)
	})
}

func compareRows(a, b *models.WatchSummary, keys []SortByField) int {
	for _, key := range keys {
		va, okA := key.Field.Value(a)
		vb, okB := key.Field.Value(b)
		switch {
		case !okA && !okB:
			continue
		case !okA:
			return 1
		case !okB:
			return -1
		}
		c := fields.Compare(va, vb)
		if !key.Ascending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
