// Package transcode converts rows between the local field naming convention
// (camelCase, the JSON shape of client models) and the remote one
// (snake_case, the column names of the remote store).
//
// The conversion is structural: keys of the top-level object are renamed,
// values are passed through untouched. Nested objects and arrays (for
// example sale line items) are treated as opaque data.
package transcode

import (
	"strings"
	"unicode"
)

// Row is a single record keyed by field name.
type Row = map[string]any

// ToRemote renames every key of row from camelCase to snake_case.
func ToRemote(row Row) Row {
	return renameKeys(row, SnakeCase)
}

// ToLocal renames every key of row from snake_case to camelCase.
func ToLocal(row Row) Row {
	return renameKeys(row, CamelCase)
}

func renameKeys(row Row, fn func(string) string) Row {
	if row == nil {
		return nil
	}
	out := make(Row, len(row))
	for k, v := range row {
		out[fn(k)] = v
	}
	return out
}

// SnakeCase inserts an underscore before each upper-case letter and lowers it:
// "balanceAfterEntry" becomes "balance_after_entry".
func SnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CamelCase removes each underscore and upper-cases the letter after it:
// "balance_after_entry" becomes "balanceAfterEntry".
func CamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
