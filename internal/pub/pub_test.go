package pub

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare doi", "10.1016/j.iheduc.2008.03.001", "10.1016/j.iheduc.2008.03.001"},
		{"doi prefix", "doi:10.1016/j.iheduc.2008.03.001", "10.1016/j.iheduc.2008.03.001"},
		{"dx url", "http://dx.doi.org/10.1016/j.iheduc.2008.03.001", "10.1016/j.iheduc.2008.03.001"},
		{"https url", "https://doi.org/10.1016/j.iheduc.2008.03.001", "10.1016/j.iheduc.2008.03.001"},
		{"mixed case", "HTTPS://DOI.ORG/10.1234/ABC.DEF", "10.1234/abc.def"},
		{"trailing period", "10.1234/abc.", "10.1234/abc"},
		{"empty", "", ""},
		{"not a doi", "https://example.com/paper", ""},
		{"no suffix", "10.1234/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalDOI(tt.input); got != tt.want {
				t.Errorf("CanonicalDOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mixed case and spaces", "Deep Learning for X", "deeplearningforx"},
		{"punctuation", "Deep learning for X.", "deeplearningforx"},
		{"quotes and dashes", `"Large-scale analyses"`, "largescaleanalyses"},
		{"empty", "", ""},
		{"digits kept", "COVID-19 models", "covid19models"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapse whitespace", "  A   platform \n for  analysis ", "A platform for analysis"},
		{"strip quotes", `"Quoted title"`, "Quoted title"},
		{"trailing punctuation", "A title.", "A title"},
		{"already clean", "Nothing to do", "Nothing to do"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.input); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain year", "2020", 2020},
		{"iso date", "2017-09-14 17:48:40", 2017},
		{"embedded", "Published in 1998, reprinted", 1998},
		{"too short", "202", 0},
		{"implausible", "9999", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractYear(tt.input); got != tt.want {
				t.Errorf("ExtractYear(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"semicolons", "Smith, John; Doe, Jane", []string{"Smith, John", "Doe, Jane"}},
		{"and separator", "J Smith and J Doe", []string{"J Smith", "J Doe"}},
		{"single", "Smith, John", []string{"Smith, John"}},
		{"empty", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitAuthors(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAuthors(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestGoogleTruncation(t *testing.T) {
	truncated := "A very long title that Google cut short …"
	if !IsGoogleTruncated(truncated) {
		t.Errorf("IsGoogleTruncated(%q) = false, want true", truncated)
	}
	if IsGoogleTruncated("A complete title") {
		t.Error("IsGoogleTruncated() = true for complete title")
	}
	if got := TrimGoogleTruncate(truncated); got != "A very long title that Google cut short" {
		t.Errorf("TrimGoogleTruncate() = %q", got)
	}
	if got := TrimGoogleTruncate("untouched"); got != "untouched" {
		t.Errorf("TrimGoogleTruncate() changed a title without the marker: %q", got)
	}
}

func TestNormalize(t *testing.T) {
	p, err := Normalize(Raw{
		Title:   `  "Deep  learning for X." `,
		Authors: "Smith, John; Doe, Jane",
		DOI:     "https://doi.org/10.1/ABC",
		Year:    "2020-05-01",
		Journal: "Nature Methods",
		Origin:  "googlescholar-email",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.Title != "Deep learning for X" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.CanonicalTitle != "deeplearningforx" {
		t.Errorf("CanonicalTitle = %q", p.CanonicalTitle)
	}
	if p.DOI != "10.1/abc" {
		t.Errorf("DOI = %q", p.DOI)
	}
	if p.Year != 2020 {
		t.Errorf("Year = %d", p.Year)
	}
	if len(p.Authors) != 2 || p.Authors[0] != "Smith, John" {
		t.Errorf("Authors = %v", p.Authors)
	}
	if p.URL != "https://doi.org/10.1/abc" {
		t.Errorf("URL = %q, want DOI-resolved link", p.URL)
	}
}

func TestNormalize_DOIFromURL(t *testing.T) {
	p, err := Normalize(Raw{
		Title: "Some pub",
		URL:   "https://dx.doi.org/10.5555/xyz",
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if p.DOI != "10.5555/xyz" {
		t.Errorf("DOI = %q, want extraction from URL", p.DOI)
	}
	if p.URL != "https://dx.doi.org/10.5555/xyz" {
		t.Errorf("URL = %q, direct URL should be kept", p.URL)
	}
}

func TestNormalize_Invalid(t *testing.T) {
	_, err := Normalize(Raw{Title: "  ... "})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Normalize() error = %v, want ErrInvalidRecord", err)
	}
}

func TestIdentityKey(t *testing.T) {
	withDOI := Pub{CanonicalTitle: "sometitle", DOI: "10.1/abc", Year: 2020}
	if got := withDOI.IdentityKey(); got != "10.1/abc" {
		t.Errorf("IdentityKey() = %q, want DOI", got)
	}

	noDOI := Pub{CanonicalTitle: "sometitle", Year: 2020}
	key1 := noDOI.IdentityKey()
	key2 := noDOI.IdentityKey()
	if key1 != key2 {
		t.Errorf("IdentityKey() not stable: %q != %q", key1, key2)
	}
	if key1 != "sometitle|2020" {
		t.Errorf("IdentityKey() = %q", key1)
	}
}

func TestMerge(t *testing.T) {
	short := Pub{RawTitle: "Short", Title: "Short", Year: 2020, URL: "https://a"}
	long := Pub{RawTitle: "A much longer raw title", Title: "A much longer raw title", Journal: "Cell"}

	merged := Merge(short, long)
	if merged.RawTitle != long.RawTitle {
		t.Errorf("Merge kept %q, want longer raw title", merged.RawTitle)
	}
	if merged.Year != 2020 {
		t.Errorf("Merge lost year, got %d", merged.Year)
	}
	if merged.URL != "https://a" {
		t.Errorf("Merge lost URL, got %q", merged.URL)
	}

	withDOI := Pub{RawTitle: "x", DOI: "10.1/abc"}
	merged = Merge(long, withDOI)
	if merged.DOI != "10.1/abc" || merged.RawTitle != "x" {
		t.Errorf("Merge should prefer the record with a DOI, got %+v", merged)
	}
}
