// Package strings holds small normalisation helpers for user-entered lists.
package strings

import (
	"strings"
	"unicode"
)

// DedupeFold trims each value, collapses inner whitespace runs to a single
// space and drops blanks. Duplicates are detected case-insensitively; the
// first spelling wins and order is preserved.
func DedupeFold(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.Join(strings.FieldsFunc(v, unicode.IsSpace), " ")
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
