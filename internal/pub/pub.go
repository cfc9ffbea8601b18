// Package pub defines the canonical publication model shared by every
// alert and library adapter.
package pub

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord reports a raw record that cannot be normalized into
// a usable publication (no title and no DOI). Callers are expected to
// drop the record and keep going.
var ErrInvalidRecord = errors.New("record has no usable title or DOI")

// Pub is one publication as understood by the matching engine,
// independent of which adapter produced it.
type Pub struct {
	Title          string   `json:"title"`           // cleaned display title
	RawTitle       string   `json:"raw_title"`       // title exactly as reported
	CanonicalTitle string   `json:"canonical_title"` // comparison form (lower case, alphanumerics only)
	Authors        []string `json:"authors,omitempty"`
	DOI            string   `json:"doi,omitempty"`  // canonical 10.x/... form, "" when unknown
	Year           int      `json:"year,omitempty"` // 0 when unknown
	Journal        string   `json:"journal,omitempty"`
	URL            string   `json:"url,omitempty"`
	Origin         string   `json:"origin,omitempty"` // adapter tag that produced this record
}

// Raw is an untransformed record as handed over by an adapter. Fields
// are whatever text the source offered; Normalize turns it into a Pub.
type Raw struct {
	Title   string
	Authors string // author text in whatever format the source uses
	DOI     string // bare DOI, doi: prefix, or DOI-bearing URL
	URL     string
	Year    string // a 4-digit year or a date string starting with one
	Journal string
	Origin  string
}

// Normalize converts a raw record into a canonical Pub. It is a pure
// function; it returns ErrInvalidRecord (wrapped) when the result
// would carry no identity.
func Normalize(raw Raw) (Pub, error) {
	p := Pub{
		RawTitle: raw.Title,
		Title:    CleanTitle(raw.Title),
		Journal:  CleanTitle(raw.Journal),
		URL:      raw.URL,
		Origin:   raw.Origin,
	}
	p.CanonicalTitle = Canonical(p.Title)
	p.DOI = CanonicalDOI(firstDOI(raw))
	p.Year = ExtractYear(raw.Year)
	p.Authors = SplitAuthors(raw.Authors)

	if p.CanonicalTitle == "" && p.DOI == "" {
		return Pub{}, fmt.Errorf("normalizing %q: %w", raw.Title, ErrInvalidRecord)
	}

	// Prefer a DOI-resolved link when the source gave us a DOI but no
	// direct URL.
	if p.URL == "" && p.DOI != "" {
		p.URL = "https://doi.org/" + p.DOI
	}

	return p, nil
}

// firstDOI picks the DOI-bearing field to extract from: the dedicated
// DOI field when present, otherwise the record's URL (many sources
// supply a doi.org landing link instead of a DOI field).
func firstDOI(raw Raw) string {
	if raw.DOI != "" {
		return raw.DOI
	}
	return raw.URL
}

// IdentityKey returns the stable key used for ledger uniqueness: the
// canonical DOI when present, otherwise the canonical title and year.
// It is computable from a single record alone.
func (p Pub) IdentityKey() string {
	if p.DOI != "" {
		return p.DOI
	}
	return TitleYearKey(p.CanonicalTitle, p.Year)
}

// TitleYearKey builds the no-DOI form of an identity key.
func TitleYearKey(canonicalTitle string, year int) string {
	return fmt.Sprintf("%s|%d", canonicalTitle, year)
}

// Richer reports whether a is a richer description of the same pub
// than b: a record with a DOI beats one without, then the longer raw
// title wins.
func Richer(a, b Pub) bool {
	if (a.DOI != "") != (b.DOI != "") {
		return a.DOI != ""
	}
	return len(a.RawTitle) > len(b.RawTitle)
}

// Merge combines two records believed to denote the same publication,
// keeping the richer one and backfilling fields it lacks.
func Merge(a, b Pub) Pub {
	keep, other := a, b
	if Richer(b, a) {
		keep, other = b, a
	}
	if keep.DOI == "" {
		keep.DOI = other.DOI
	}
	if len(keep.Authors) == 0 {
		keep.Authors = other.Authors
	}
	if keep.Year == 0 {
		keep.Year = other.Year
	}
	if keep.Journal == "" {
		keep.Journal = other.Journal
	}
	if keep.URL == "" {
		keep.URL = other.URL
	}
	return keep
}
