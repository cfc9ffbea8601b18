// Package triage drives the match workflow: it resolves every newly
// reported publication against the relevant-pubs library and the
// known-pubs ledger, and classifies each one for curation.
package triage

import (
	"time"

	"pubspork/internal/ledger"
	"pubspork/internal/match"
	"pubspork/internal/pub"
)

// Class tags a reported publication with its disposition.
type Class string

const (
	// ClassNewlyReported marks a pub never seen before this run.
	ClassNewlyReported Class = "newly-reported"
	// ClassRepeatNew marks a pub reported again before being curated.
	ClassRepeatNew Class = "repeat-new"
	// ClassAlreadyInLibrary marks a pub confirmed in the library; it
	// is never presented for re-curation.
	ClassAlreadyInLibrary Class = "already-in-library"
	// ClassPreviouslyIgnored marks a pub a human already dismissed.
	// Suppressed from the curation page by default, still counted.
	ClassPreviouslyIgnored Class = "previously-ignored"
)

// Classified pairs a deduplicated alert record with its disposition.
type Classified struct {
	Pub     pub.Pub
	Class   Class
	Tier    match.Tier // confidence of the ledger match, none for new pubs
	Entry   *ledger.Entry
	Sources []string // origin tags of every alert merged into this record
}

// Result is everything one match run produces.
type Result struct {
	Classified []Classified
	Counts     map[Class]int
	Skipped    int // raw records dropped because they had no identity
}

// Run executes the match workflow against one snapshot of inputs. The
// ledger is mutated in place and must be persisted by the caller; now
// is the run date used for first_seen and entry_date (passed in
// explicitly so runs are deterministic under test).
func Run(alerts, library []pub.Raw, led *ledger.Ledger, m *match.Matcher, now time.Time) Result {
	res := Result{Counts: make(map[Class]int)}

	// Library records first: this records newly added library items
	// and refreshes DOIs for previously seen pubs now confirmed in
	// the library. Alerts classified afterwards can therefore never
	// report a library pub as new.
	for _, raw := range library {
		p, err := pub.Normalize(raw)
		if err != nil {
			res.Skipped++
			continue
		}
		led.Upsert(p, ledger.StateInLibrary, now)
	}

	batch := dedupeAlerts(alerts, m, &res)

	// Snapshot the ledger population once; the batch is already
	// deduplicated, so entries created below cannot match later
	// batch members.
	entries := led.Entries()
	population := make([]pub.Pub, len(entries))
	for i, e := range entries {
		population[i] = e.Pub()
	}

	for _, c := range batch {
		hit := m.Match(c.Pub, population)
		if hit == nil {
			c.Class = ClassNewlyReported
			c.Entry = led.Upsert(c.Pub, ledger.StateNew, now)
		} else {
			entry := entries[hit.Index]
			c.Tier = hit.Tier
			c.Entry = entry
			switch entry.State {
			case ledger.StateInLibrary:
				c.Class = ClassAlreadyInLibrary
			case ledger.StateIgnore:
				c.Class = ClassPreviouslyIgnored
			default:
				c.Class = ClassRepeatNew
			}
			led.Refresh(entry, c.Pub, entry.State, now)
		}
		res.Counts[c.Class]++
		res.Classified = append(res.Classified, c)
	}

	return res
}

// dedupeAlerts normalizes the alert batch and merges records that
// match each other within the batch, keeping the richer record.
func dedupeAlerts(alerts []pub.Raw, m *match.Matcher, res *Result) []Classified {
	var kept []Classified
	var pubs []pub.Pub // parallel to kept, for matching

	for _, raw := range alerts {
		p, err := pub.Normalize(raw)
		if err != nil {
			res.Skipped++
			continue
		}

		if hit := m.Match(p, pubs); hit != nil {
			merged := pub.Merge(pubs[hit.Index], p)
			pubs[hit.Index] = merged
			kept[hit.Index].Pub = merged
			kept[hit.Index].Sources = appendSource(kept[hit.Index].Sources, p.Origin)
			continue
		}

		kept = append(kept, Classified{Pub: p, Sources: appendSource(nil, p.Origin)})
		pubs = append(pubs, p)
	}

	return kept
}

func appendSource(sources []string, origin string) []string {
	if origin == "" {
		return sources
	}
	for _, s := range sources {
		if s == origin {
			return sources
		}
	}
	return append(sources, origin)
}
