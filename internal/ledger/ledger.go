// Package ledger maintains the durable record of every publication
// ever evaluated, relevant or not.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"pubspork/internal/pub"
)

// State records what we know about a ledger entry.
type State string

const (
	// StateNew marks a pub that has been seen but not curated yet.
	StateNew State = "new"
	// StateInLibrary marks a pub confirmed present in the
	// relevant-pubs library.
	StateInLibrary State = "in_library"
	// StateIgnore marks a pub a human judged irrelevant. Only a human
	// edit sets or clears this state.
	StateIgnore State = "ignore"
)

// Entry is one row of the ledger: one distinct publication identity.
type Entry struct {
	Key        string // identity key; unique within the ledger
	Title      string // display title as first reported
	RawTitle   string // untransformed title, kept for display
	Authors    []string
	DOI        string
	Year       int
	Journal    string
	URL        string
	State      State
	FirstSeen  time.Time // when the pub was first reported
	EntryDate  time.Time // when the row was last written
	Annotation string    // free-text human comment, preserved verbatim
}

// Pub converts an entry back into a canonical record so the matcher
// can compare alert records against the ledger.
func (e *Entry) Pub() pub.Pub {
	title := e.RawTitle
	if title == "" {
		title = e.Title
	}
	return pub.Pub{
		Title:          e.Title,
		RawTitle:       title,
		CanonicalTitle: pub.Canonical(e.Title),
		Authors:        e.Authors,
		DOI:            e.DOI,
		Year:           e.Year,
		Journal:        e.Journal,
		URL:            e.URL,
		Origin:         "ledger",
	}
}

// Ledger is the in-memory known-pubs database for one run. It is read
// fully at the start of a run and written fully at the end; it is not
// safe for concurrent use.
type Ledger struct {
	entries []*Entry
	byKey   map[string]*Entry
	byDOI   map[string]*Entry
	byTitle map[string][]*Entry // canonical title -> entries, years may differ
	skipped int
	warns   []string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		byKey:   make(map[string]*Entry),
		byDOI:   make(map[string]*Entry),
		byTitle: make(map[string][]*Entry),
	}
}

// Entries returns the entries in insertion order.
func (l *Ledger) Entries() []*Entry {
	return l.entries
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Skipped returns how many malformed rows were dropped during load.
func (l *Ledger) Skipped() int {
	return l.skipped
}

// Warnings returns per-row load warnings in the order encountered.
func (l *Ledger) Warnings() []string {
	return l.warns
}

// Get returns the entry with the given identity key, or nil.
func (l *Ledger) Get(key string) *Entry {
	return l.byKey[key]
}

// Find looks up an existing entry for a pub by exact identity: DOI
// first, then canonical title (years must not contradict). Fuzzy
// matching is the matcher's job, not the ledger's.
func (l *Ledger) Find(p pub.Pub) *Entry {
	if p.DOI != "" {
		if e, ok := l.byDOI[p.DOI]; ok {
			return e
		}
	}
	if p.CanonicalTitle != "" {
		for _, e := range l.byTitle[p.CanonicalTitle] {
			if yearsAgree(p.Year, e.Year) {
				return e
			}
		}
	}
	return nil
}

// Upsert records a pub in the ledger. A previously unseen identity
// becomes a new entry with the given state and FirstSeen set to
// today. An existing entry gets its EntryDate refreshed, missing
// fields backfilled, and its state promoted per the transition rules.
func (l *Ledger) Upsert(p pub.Pub, state State, today time.Time) *Entry {
	e := l.Find(p)
	if e == nil {
		// Same title, years too far apart for Find: the identity key
		// must still stay unique.
		e = l.Get(p.IdentityKey())
	}
	if e != nil {
		l.Refresh(e, p, state, today)
		return e
	}

	e = &Entry{
		Key:        p.IdentityKey(),
		Title:      p.Title,
		RawTitle:   p.RawTitle,
		Authors:    p.Authors,
		DOI:        p.DOI,
		Year:       p.Year,
		Journal:    p.Journal,
		URL:        p.URL,
		State:      state,
		FirstSeen:  today,
		EntryDate:  today,
		Annotation: "",
	}
	l.add(e)
	return e
}

// Refresh updates an existing entry with information from a record
// that matched it. Human-authored columns are never touched; the only
// automated state transition is new -> in_library.
func (l *Ledger) Refresh(e *Entry, p pub.Pub, state State, today time.Time) {
	e.EntryDate = today

	// DOI backfill: an alert or library export may finally supply the
	// DOI an older entry lacked. The identity key follows it. A DOI
	// already owned by another entry is never taken over.
	if e.DOI == "" && p.DOI != "" {
		if _, taken := l.byDOI[p.DOI]; taken {
			l.warns = append(l.warns, fmt.Sprintf("DOI %s already belongs to another entry", p.DOI))
		} else {
			e.DOI = p.DOI
			l.byDOI[e.DOI] = e
			l.rekey(e)
		}
	}

	// A truncated or missing title is replaced by a fuller one.
	if e.Title == "" || (pub.IsGoogleTruncated(e.RawTitle) && len(p.Title) > len(e.Title)) {
		l.dropTitle(e)
		e.Title = p.Title
		e.RawTitle = p.RawTitle
		if ct := pub.Canonical(e.Title); ct != "" {
			l.byTitle[ct] = append(l.byTitle[ct], e)
		}
		l.rekey(e)
	}
	if len(e.Authors) == 0 {
		e.Authors = p.Authors
	}
	if e.Year == 0 {
		e.Year = p.Year
	}
	if e.Journal == "" {
		e.Journal = p.Journal
	}
	if e.URL == "" {
		e.URL = p.URL
	}

	if state == StateInLibrary && e.State == StateNew {
		e.State = StateInLibrary
	}
}

// add inserts an entry and indexes it, warning on duplicate keys.
func (l *Ledger) add(e *Entry) {
	l.entries = append(l.entries, e)
	if _, dup := l.byKey[e.Key]; dup {
		l.warns = append(l.warns, fmt.Sprintf("identity key %s appears more than once", e.Key))
	} else {
		l.byKey[e.Key] = e
	}
	if e.DOI != "" {
		if _, dup := l.byDOI[e.DOI]; !dup {
			l.byDOI[e.DOI] = e
		}
	}
	if ct := pub.Canonical(e.Title); ct != "" {
		l.byTitle[ct] = append(l.byTitle[ct], e)
	}
}

// rekey moves an entry to the key its current fields dictate. The old
// slot is released; a slot another entry already owns is never taken.
func (l *Ledger) rekey(e *Entry) {
	key := e.Pub().IdentityKey()
	if key == e.Key {
		return
	}
	if other, taken := l.byKey[key]; taken && other != e {
		return
	}
	if l.byKey[e.Key] == e {
		delete(l.byKey, e.Key)
	}
	e.Key = key
	l.byKey[key] = e
}

// dropTitle removes an entry from the canonical-title index before its
// title changes.
func (l *Ledger) dropTitle(e *Entry) {
	ct := pub.Canonical(e.Title)
	list := l.byTitle[ct]
	for i, other := range list {
		if other == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(l.byTitle, ct)
	} else {
		l.byTitle[ct] = list
	}
}

// yearsAgree applies the soft year rule used for exact-title lookup:
// unknown on either side never contradicts, otherwise at most one
// year apart.
func yearsAgree(a, b int) bool {
	if a == 0 || b == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// joinAuthors serializes the author list for the TSV representation.
func joinAuthors(authors []string) string {
	return strings.Join(authors, "; ")
}
