package domain

import (
	"strings"
	"unicode"
)

// SearchTerms reduces a free-text query to lower-case runs of letters and
// digits. Everything else separates terms. An empty result means there is
// nothing to search for.
func SearchTerms(q string) []string {
	fields := strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if fields == nil {
		return []string{}
	}
	return fields
}
