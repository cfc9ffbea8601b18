package pub

import (
	"strings"
	"unicode"
)

// Google Scholar truncates long titles and appends a non-breaking
// space plus an ellipsis. Some alerts use a plain space instead.
const (
	googleTruncateMark      = "\u00a0\u2026"
	googleTruncateMarkPlain = " \u2026"
)

// CleanTitle normalizes a title for display: trims whitespace,
// collapses internal whitespace runs, and strips wrapping quotes and
// trailing punctuation commonly introduced by export formats. The
// original casing is kept.
func CleanTitle(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, `"'“”‘’`)
	s = strings.TrimRight(s, ".,;: ")
	return strings.TrimSpace(s)
}

// Canonical converts a messy string into its comparison form: all
// lower case with every non-alphanumeric rune removed. The canonical
// form of the empty string is the empty string.
func Canonical(messy string) string {
	var b strings.Builder
	b.Grow(len(messy))
	for _, r := range messy {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CanonicalDOI reduces a possibly full, mixed-case DOI to just the
// lower-cased DOI. Accepted inputs include:
//
//	10.1016/j.iheduc.2008.03.001
//	doi:10.1016/j.iheduc.2008.03.001
//	https://doi.org/10.1016/j.iheduc.2008.03.001
//
// DOIs are case insensitive, and all of them start with "10.", so
// everything before that prefix is dropped. A non-empty string that
// contains no DOI yields "".
func CanonicalDOI(given string) string {
	if given == "" {
		return ""
	}
	lower := strings.ToLower(strings.TrimSpace(given))
	start := strings.Index(lower, "10.")
	if start == -1 {
		return ""
	}
	doi := strings.TrimRight(lower[start:], ".,;:)")
	// Must have a suffix after the registrant slash to be a DOI.
	slash := strings.Index(doi, "/")
	if slash == -1 || slash == len(doi)-1 {
		return ""
	}
	return doi
}

// ExtractYear pulls a plausible 4-digit publication year from a year
// field or the lead of a date string. It returns 0 when no year can
// be parsed; 0 means unknown, never "year zero".
func ExtractYear(s string) int {
	digits := 0
	year := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			year = year*10 + int(r-'0')
			digits++
			if digits == 4 {
				if year >= 1400 && year <= 2200 {
					return year
				}
				digits, year = 0, 0
			}
			continue
		}
		digits, year = 0, 0
	}
	return 0
}

// SplitAuthors splits an author text on the separators the sources
// use (";" and " and "), preserving source order. First-author
// position is meaningful for some sources, so the result is never
// sorted.
func SplitAuthors(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " and ", ";")
	parts := strings.Split(s, ";")
	var authors []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			authors = append(authors, part)
		}
	}
	return authors
}

// IsGoogleTruncated reports whether a title carries the Google
// Scholar truncation marker.
func IsGoogleTruncated(title string) bool {
	return strings.HasSuffix(title, googleTruncateMark) ||
		strings.HasSuffix(title, googleTruncateMarkPlain)
}

// TrimGoogleTruncate removes the truncation marker from a title, if
// present. Titles without the marker come back unchanged.
func TrimGoogleTruncate(title string) string {
	title = strings.TrimSuffix(title, googleTruncateMark)
	title = strings.TrimSuffix(title, googleTruncateMarkPlain)
	return strings.TrimRight(title, " \u00a0")
}
