// Package report assembles the operator summary from merged, trimmed rows.
package report

import (
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/criteria"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
	"github.com/telhawk-systems/telhawk-watch/alerting/internal/sorting"
)

// Assemble keeps the rows that pass the predicate, orders them by keys and
// wraps them in a Report. The input slice is left untouched. A nil predicate
// passes every row.
func Assemble(rows []models.WatchSummary, pass criteria.Predicate, keys []sorting.SortByField) models.Report {
	if pass == nil {
		pass = criteria.MatchAll
	}

	watches := make([]models.WatchSummary, 0, len(rows))
	for i := range rows {
		if pass(&rows[i]) {
			watches = append(watches, rows[i])
		}
	}
	sorting.Sort(watches, keys)
	return models.Report{Watches: watches}
}

// Page returns the 1-based page of the report. Out of range pages are empty.
func Page(r models.Report, page, limit int) models.Report {
	if page < 1 || limit < 1 {
		return r
	}
	start := (page - 1) * limit
	if start >= len(r.Watches) {
		return models.Report{Watches: []models.WatchSummary{}}
	}
	end := min(start+limit, len(r.Watches))
	return models.Report{Watches: r.Watches[start:end]}
}
