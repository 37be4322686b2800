// Package merge combines partial summary sets read from several status
// indices into one list.
package merge

import "github.com/telhawk-systems/telhawk-watch/alerting/internal/models"

// Summaries concatenates sets in order and drops any row whose watch id was
// already seen. The first occurrence wins and the relative order of the kept
// rows is preserved. The result is never nil.
func Summaries(sets ...[]models.WatchSummary) []models.WatchSummary {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	out := make([]models.WatchSummary, 0, total)
	seen := make(map[string]struct{}, total)
	for _, set := range sets {
		for _, row := range set {
			if _, dup := seen[row.WatchID]; dup {
				continue
			}
			seen[row.WatchID] = struct{}{}
			out = append(out, row)
		}
	}
	return out
}
