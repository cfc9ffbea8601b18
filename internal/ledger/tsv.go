package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"pubspork/internal/pub"
)

// The persisted representation is a TSV file so a human can open it
// in a spreadsheet between runs and edit state and annotation.
var columns = []string{
	"title", "authors", "doi", "year", "journal", "state",
	"first_seen", "entry_date", "annotation",
}

// dateLayout is the format used for first_seen and entry_date.
const dateLayout = "2006-01-02"

// LoadError reports a ledger file that could not be parsed
// structurally. It is fatal: proceeding with an empty ledger would
// re-report every previously seen publication as new.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("loading ledger: %v", e.Err)
	}
	return fmt.Sprintf("loading ledger %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load parses a persisted ledger. A malformed row (no usable identity
// fields) is skipped and counted, not fatal; a file that cannot be
// parsed at all yields a *LoadError.
func Load(r io.Reader) (*Ledger, error) {
	return load(r, "")
}

// LoadFile loads a ledger from disk. A missing file is not an error:
// the first run starts with an empty ledger.
func LoadFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()
	return load(f, path)
}

func load(r io.Reader, path string) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return New(), nil // empty file, empty ledger
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[trimBOM(name)] = i
	}
	for _, required := range []string{"title", "doi", "state"} {
		if _, ok := col[required]; !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("missing required column %q", required)}
		}
	}

	l := New()
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("row %d: %w", line+1, err)}
		}
		line++

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		title := pub.CleanTitle(field("title"))
		doi := pub.CanonicalDOI(field("doi"))
		if title == "" && doi == "" {
			l.skipped++
			l.warns = append(l.warns, fmt.Sprintf("row %d: no title or DOI, skipped", line))
			continue
		}

		e := &Entry{
			Title:      title,
			RawTitle:   field("title"),
			Authors:    pub.SplitAuthors(field("authors")),
			DOI:        doi,
			Year:       pub.ExtractYear(field("year")),
			Journal:    field("journal"),
			State:      State(field("state")),
			FirstSeen:  parseDate(field("first_seen")),
			EntryDate:  parseDate(field("entry_date")),
			Annotation: field("annotation"),
		}
		if e.State == "" {
			e.State = StateNew
		}
		e.Key = e.Pub().IdentityKey()
		l.add(e)
	}

	return l, nil
}

// Save serializes the ledger: deterministic column order, rows sorted
// by entry date then identity key so diffs across runs are stable.
// Human-authored columns are written back verbatim.
func (l *Ledger) Save(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing ledger header: %w", err)
	}

	sorted := make([]*Entry, len(l.entries))
	copy(sorted, l.entries)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].EntryDate.Equal(sorted[j].EntryDate) {
			return sorted[i].EntryDate.Before(sorted[j].EntryDate)
		}
		return sorted[i].Key < sorted[j].Key
	})

	for _, e := range sorted {
		row := []string{
			e.Title,
			joinAuthors(e.Authors),
			e.DOI,
			formatYear(e.Year),
			e.Journal,
			string(e.State),
			formatDate(e.FirstSeen),
			formatDate(e.EntryDate),
			e.Annotation,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing ledger row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveFile writes the ledger atomically: the new content lands in a
// temp file that replaces the old ledger only on success, so a crash
// mid-run leaves the previous ledger untouched.
func (l *Ledger) SaveFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.tsv")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := l.Save(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatYear(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
