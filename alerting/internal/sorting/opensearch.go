package sorting

import "github.com/telhawk-systems/telhawk-watch/alerting/internal/fields"

// ToOpenSearch translates parsed keys into an OpenSearch "sort" clause.
// Missing values sort last in both directions, matching Sort, and
// unmapped_type keeps indices without the field from failing the search.
func ToOpenSearch(keys []SortByField) []map[string]interface{} {
	if len(keys) == 0 {
		return nil
	}
	out := make([]map[string]interface{}, len(keys))
	for i, key := range keys {
		order := "asc"
		if !key.Ascending {
			order = "desc"
		}
		out[i] = map[string]interface{}{
			key.DocumentFieldName(): map[string]interface{}{
				"order":         order,
				"missing":       "_last",
				"unmapped_type": unmappedType(key.Field.Kind()),
			},
		}
	}
	return out
}

func unmappedType(k fields.Kind) string {
	switch k {
	case fields.KindNumeric:
		return "double"
	case fields.KindTemporal:
		return "date"
	case fields.KindBoolean:
		return "boolean"
	default:
		return "keyword"
	}
}
