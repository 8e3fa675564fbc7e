// Package model holds the value types shared across the data-access layer:
// the generic row map handed to consumers and the enumerated domain values
// enforced at repository boundaries.
package model

// Row is a single database row keyed by column name. Repositories return
// these per the consumer contract; the API layer owns serialization.
type Row = map[string]any

// ID extracts the integer surrogate identity from a row, tolerating the
// numeric types database/sql drivers produce.
func ID(r Row) (int64, bool) {
	switch v := r["id"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	default:
		return 0, false
	}
}
