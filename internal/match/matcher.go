// Package match decides whether two publication records denote the
// same real-world publication.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"pubspork/internal/pub"
)

// Tier is the confidence level of a match.
type Tier int

const (
	TierNone Tier = iota
	TierProbable
	TierHigh
	TierCertain
)

// String returns the tier name used in output and the ledger.
func (t Tier) String() string {
	switch t {
	case TierCertain:
		return "certain"
	case TierHigh:
		return "high"
	case TierProbable:
		return "probable"
	default:
		return "none"
	}
}

// DefaultThreshold is the similarity ratio a fuzzy title match must
// meet. It is a tunable policy, not a law; the config file can
// override it.
const DefaultThreshold = 0.90

// truncatedPrefixMinLen is the shortest canonical-title prefix we
// accept when matching a Google-truncated title against a full one.
// Short prefixes would match unrelated titles.
const truncatedPrefixMinLen = 60

// Result describes a successful match against a population member.
type Result struct {
	Index int     // position of the matched member in the population
	Pub   pub.Pub // the matched member
	Tier  Tier
	Score float64 // similarity ratio; 1.0 for the exact tiers
}

// Matcher applies the tiered comparison policy. The zero value is not
// usable; construct with New.
type Matcher struct {
	Threshold float64
}

// New returns a Matcher with the default fuzzy threshold.
func New() *Matcher {
	return &Matcher{Threshold: DefaultThreshold}
}

// Match compares a candidate against a population and returns the
// best match, or nil when nothing matches. Tiers are evaluated in
// order and the first tier with any hit wins:
//
//  1. certain — equal non-empty canonical DOI
//  2. high    — equal canonical title, years equal, off by one, or absent
//  3. probable — title similarity ratio >= Threshold, years equal if both known
//
// Within the fuzzy tier the highest-scoring member wins; ties go to
// the earliest population member, so results are reproducible.
func (m *Matcher) Match(candidate pub.Pub, population []pub.Pub) *Result {
	// Tier 1: DOI equality is an absolute identity signal.
	if candidate.DOI != "" {
		for i, other := range population {
			if other.DOI == candidate.DOI {
				return &Result{Index: i, Pub: other, Tier: TierCertain, Score: 1.0}
			}
		}
	}

	// Tier 2: exact canonical title, with year as a soft tie-breaker.
	// Online-first and final-issue dates legitimately differ by a
	// year, so off-by-one is accepted.
	if candidate.CanonicalTitle != "" {
		for i, other := range population {
			if other.CanonicalTitle == candidate.CanonicalTitle && yearsCompatible(candidate.Year, other.Year, 1) {
				return &Result{Index: i, Pub: other, Tier: TierHigh, Score: 1.0}
			}
			if truncatedPrefixMatch(candidate, other) {
				return &Result{Index: i, Pub: other, Tier: TierHigh, Score: 1.0}
			}
		}
	}

	// Tier 3: fuzzy title similarity. Alerts and exports truncate
	// titles, alter subtitle punctuation, and drop diacritics.
	var best *Result
	if candidate.CanonicalTitle == "" {
		return nil
	}
	for i, other := range population {
		if other.CanonicalTitle == "" {
			continue
		}
		if !yearsCompatible(candidate.Year, other.Year, 0) {
			continue
		}
		score := Ratio(candidate.CanonicalTitle, other.CanonicalTitle)
		if score < m.Threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Result{Index: i, Pub: other, Tier: TierProbable, Score: score}
		}
	}
	return best
}

// Ratio returns a normalized edit-distance similarity between two
// strings on a 0..1 scale; 1.0 means identical.
func Ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// yearsCompatible reports whether two years agree within the given
// slack. An unknown year (0) on either side never blocks a match.
func yearsCompatible(a, b, slack int) bool {
	if a == 0 || b == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= slack
}

// truncatedPrefixMatch handles Google Scholar truncated titles: the
// truncated title must be a long prefix of the full one.
func truncatedPrefixMatch(candidate, other pub.Pub) bool {
	switch {
	case pub.IsGoogleTruncated(candidate.RawTitle):
		return len(candidate.CanonicalTitle) >= truncatedPrefixMinLen &&
			strings.HasPrefix(other.CanonicalTitle, candidate.CanonicalTitle)
	case pub.IsGoogleTruncated(other.RawTitle):
		return len(other.CanonicalTitle) >= truncatedPrefixMinLen &&
			strings.HasPrefix(candidate.CanonicalTitle, other.CanonicalTitle)
	}
	return false
}
