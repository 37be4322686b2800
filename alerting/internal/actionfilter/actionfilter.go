// Package actionfilter trims summary rows down to the actions their watch
// currently defines.
package actionfilter

import "github.com/telhawk-systems/telhawk-watch/alerting/internal/models"

// Apply returns a copy of rows in which every watch present in allowed keeps
// only the listed actions. A watch with an empty allow-list keeps its row but
// loses all actions. Watches absent from allowed are returned unchanged.
// Neither rows nor allowed is modified.
func Apply(rows []models.WatchSummary, allowed []models.WatchActionNames) []models.WatchSummary {
	if len(rows) == 0 {
		return []models.WatchSummary{}
	}
	index := Index(allowed)

	out := make([]models.WatchSummary, len(rows))
	for i, row := range rows {
		names, ok := index[row.WatchID]
		if !ok {
			out[i] = row
			continue
		}
		out[i] = trim(row, names)
	}
	return out
}

// Index maps watch ids to their set of allowed action names. When a watch is
// listed twice the first entry wins.
func Index(allowed []models.WatchActionNames) map[string]map[string]struct{} {
	index := make(map[string]map[string]struct{}, len(allowed))
	for _, entry := range allowed {
		if _, seen := index[entry.WatchID]; seen {
			continue
		}
		set := make(map[string]struct{}, len(entry.AllowedActionNames))
		for _, name := range entry.AllowedActionNames {
			set[name] = struct{}{}
		}
		index[entry.WatchID] = set
	}
	return index
}

func trim(row models.WatchSummary, names map[string]struct{}) models.WatchSummary {
	out := row.Clone()
	if len(out.Actions) == 0 {
		return out
	}
	for name := range out.Actions {
		if _, keep := names[name]; !keep {
			delete(out.Actions, name)
		}
	}
	return out
}
