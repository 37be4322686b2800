package criteria

import (
	"fmt"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

// Predicate reports whether a summary row passes the criteria.
type Predicate func(w *models.WatchSummary) bool

// MatchAll passes every row.
func MatchAll(*models.WatchSummary) bool { return true }

// Validate rejects contradictory criteria. An exact numeric level cannot be
// combined with a range bound, regardless of the values.
func Validate(c *models.SearchCriteria) error {
	if c == nil {
		return nil
	}
	if c.LevelNumericEqualTo != nil && (c.LevelNumericGreaterThan != nil || c.LevelNumericLessThan != nil) {
		return fmt.Errorf("%w: %s cannot be combined with %s or %s",
			ErrIncorrectCriteria, KeyLevelNumericEqualTo, KeyLevelNumericGreaterThan, KeyLevelNumericLessThan)
	}
	return nil
}

// Build validates c and returns the conjunction of its clauses.
// Nil or empty criteria produce MatchAll.
func Build(c *models.SearchCriteria) (Predicate, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	if c == nil {
		return MatchAll, nil
	}

	var clauses []Predicate
	if len(c.StatusCodes) > 0 {
		set := toSet(c.StatusCodes)
		clauses = append(clauses, func(w *models.WatchSummary) bool {
			_, ok := set[w.StatusCode]
			return ok
		})
	}
	if len(c.Severities) > 0 {
		set := toSet(c.Severities)
		clauses = append(clauses, func(w *models.WatchSummary) bool {
			if w.Severity == nil {
				return false
			}
			_, ok := set[*w.Severity]
			return ok
		})
	}
	if c.WatchID != nil {
		needle := *c.WatchID
		clauses = append(clauses, func(w *models.WatchSummary) bool {
			return strings.Contains(w.WatchID, needle)
		})
	}
	if len(c.Actions) > 0 {
		names := c.Actions
		clauses = append(clauses, func(w *models.WatchSummary) bool {
			for _, name := range names {
				if _, ok := w.Actions[name]; ok {
					return true
				}
			}
			return false
		})
	}
	if p := levelClause(c); p != nil {
		clauses = append(clauses, p)
	}
	for name, ac := range c.ActionCriteria {
		if ac == nil || ac.IsEmpty() {
			continue
		}
		clauses = append(clauses, actionClause(name, *ac))
	}

	if len(clauses) == 0 {
		return MatchAll, nil
	}
	return func(w *models.WatchSummary) bool {
		for _, clause := range clauses {
			if !clause(w) {
				return false
			}
		}
		return true
	}, nil
}

func levelClause(c *models.SearchCriteria) Predicate {
	eq, gt, lt := c.LevelNumericEqualTo, c.LevelNumericGreaterThan, c.LevelNumericLessThan
	if eq == nil && gt == nil && lt == nil {
		return nil
	}
	return func(w *models.WatchSummary) bool {
		if w.SeverityDetails == nil {
			return false
		}
		level := w.SeverityDetails.LevelNumeric
		if eq != nil && level != *eq {
			return false
		}
		if gt != nil && level <= *gt {
			return false
		}
		if lt != nil && level >= *lt {
			return false
		}
		return true
	}
}

// actionClause evaluates per-action criteria against the named action. A row
// without that action fails the clause.
func actionClause(name string, ac models.ActionCriteria) Predicate {
	return func(w *models.WatchSummary) bool {
		a, ok := w.Action(name)
		if !ok {
			return false
		}
		if !within(a.Triggered, ac.TriggeredAfter, ac.TriggeredBefore) ||
			!within(a.Checked, ac.CheckedAfter, ac.CheckedBefore) ||
			!within(a.Execution, ac.ExecutionAfter, ac.ExecutionBefore) {
			return false
		}
		if ac.StatusCode != nil && a.StatusCode != *ac.StatusCode {
			return false
		}
		if ac.CheckResult != nil && a.CheckResult != *ac.CheckResult {
			return false
		}
		return true
	}
}

// within reports whether t lies inside the inclusive window. An unset bound is
// open; a missing t fails any bound.
func within(t, after, before *time.Time) bool {
	if after == nil && before == nil {
		return true
	}
	if t == nil {
		return false
	}
	if after != nil && t.Before(*after) {
		return false
	}
	if before != nil && t.After(*before) {
		return false
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
