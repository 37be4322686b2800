package models

import "time"

// SearchCriteria is the decoded filter body of a summary request.
// Nil pointers and empty slices mean the clause was not supplied.
type SearchCriteria struct {
	StatusCodes []string
	Severities  []string
	WatchID     *string
	Actions     []string

	LevelNumericEqualTo     *int
	LevelNumericGreaterThan *int
	LevelNumericLessThan    *int

	// ActionCriteria is keyed by action name.
	ActionCriteria map[string]*ActionCriteria
}

// ActionCriteria holds the per-action clauses of a request.
type ActionCriteria struct {
	TriggeredAfter  *time.Time
	TriggeredBefore *time.Time
	CheckedAfter    *time.Time
	CheckedBefore   *time.Time
	ExecutionAfter  *time.Time
	ExecutionBefore *time.Time
	StatusCode      *string
	CheckResult     *bool
}

// IsEmpty reports whether no clause is set.
func (c *ActionCriteria) IsEmpty() bool {
	return c.TriggeredAfter == nil && c.TriggeredBefore == nil &&
		c.CheckedAfter == nil && c.CheckedBefore == nil &&
		c.ExecutionAfter == nil && c.ExecutionBefore == nil &&
		c.StatusCode == nil && c.CheckResult == nil
}

// SummaryRequest is the transport-neutral summary query.
type SummaryRequest struct {
	Tenant   string
	Sorting  string
	Criteria []byte
}
