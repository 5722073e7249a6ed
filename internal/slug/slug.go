// Package slug derives URL-safe place names and numbers them apart when
// several places share the same name.
//
// Assignment is an explicit two-step pipeline run by the caller on create or
// rename: Derive turns a name into a candidate, then Resolve picks the final
// slug given every existing slug that matches the candidate's pattern.
package slug

import (
	"fmt"
	"regexp"
	"strings"

	gosimple "github.com/gosimple/slug"
)

// Fallback is used when a name has no slug-able characters at all, so that
// every place still ends up with a non-empty slug.
const Fallback = "place"

// Derive returns the candidate slug for name: ASCII, lower-case, words joined
// by hyphens. The same name always yields the same candidate.
func Derive(name string) string {
	s := gosimple.MakeLang(strings.TrimSpace(name), "en")
	if s == "" {
		return Fallback
	}
	return s
}

// Pattern returns the case-insensitive regular expression matching candidate
// and its numbered variants (candidate, candidate-2, candidate-17, ...).
// The expression is valid both for Go's regexp package and for Postgres' ~* operator
// once the (?i) prefix is dropped; see PatternBody.
func Pattern(candidate string) string {
	return "(?i)" + PatternBody(candidate)
}

// PatternBody is Pattern without the case-insensitivity flag.
func PatternBody(candidate string) string {
	return fmt.Sprintf("^(%s)(-[0-9]+)?$", regexp.QuoteMeta(candidate))
}

// Matches reports whether s is candidate or one of its numbered variants.
func Matches(candidate, s string) bool {
	return regexp.MustCompile(Pattern(candidate)).MatchString(s)
}

// Resolve picks the final slug. matches must hold every existing slug that
// Matches candidate, excluding the place being renamed.
//
// Numbering counts matches rather than looking for the highest suffix: with
// "cafe" and "cafe-2" taken the next one is "cafe-3". If a slug in the middle
// of a sequence is renamed away the count can point at a suffix that is still
// taken; the store's unique index rejects that write with domain.ErrConflict.
func Resolve(candidate string, matches []string) string {
	if len(matches) == 0 {
		return candidate
	}
	return fmt.Sprintf("%s-%d", candidate, len(matches)+1)
}
