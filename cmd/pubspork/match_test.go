package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pubspork/internal/alert"
	"pubspork/internal/pub"
	"pubspork/internal/report"
	"pubspork/internal/triage"
)

const scholarEML = `From: Google Scholar Alerts <scholaralerts-noreply@google.com>
Subject: new articles
Date: Mon, 02 Dec 2024 10:00:00 +0000
Content-Type: text/html; charset=UTF-8

<html><body>
<h3><a href="https://example.org/p1">Adaptive immune repertoires</a></h3>
<div>A Smith, B Jones - Journal of Testing, 2024</div>
</body></html>
`

const staleScholarEML = `From: scholaralerts-noreply@google.com
Subject: old articles
Date: Wed, 01 Jan 2020 10:00:00 +0000
Content-Type: text/html; charset=UTF-8

<html><body>
<h3><a href="https://example.org/old">An old paper</a></h3>
</body></html>
`

const unknownSenderEML = `From: newsletter@example.com
Subject: not an alert
Date: Mon, 02 Dec 2024 10:00:00 +0000
Content-Type: text/html; charset=UTF-8

<html><body><h3><a href="https://example.org/x">Spam</a></h3></body></html>
`

func writeAlertDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestParseDateRange(t *testing.T) {
	since, before, err := parseDateRange("01-Dec-2024", "01-Jan-2025")
	if err != nil {
		t.Fatalf("parseDateRange() error = %v", err)
	}
	if since.Year() != 2024 || since.Month() != time.December || since.Day() != 1 {
		t.Errorf("since = %v", since)
	}
	if before.Year() != 2025 || before.Month() != time.January {
		t.Errorf("before = %v", before)
	}

	since, before, err = parseDateRange("", "")
	if err != nil {
		t.Fatalf("parseDateRange(empty) error = %v", err)
	}
	if !since.IsZero() || !before.IsZero() {
		t.Errorf("empty range = %v, %v, want zero times", since, before)
	}

	if _, _, err := parseDateRange("2024-12-01", ""); err == nil {
		t.Error("parseDateRange() error = nil for ISO date")
	}
}

func TestReadAlerts(t *testing.T) {
	dir := writeAlertDir(t, map[string]string{
		"alert1.eml":  scholarEML,
		"alert2.eml":  staleScholarEML,
		"other.eml":   unknownSenderEML,
		"notes.txt":   "not an email",
		"garbage.eml": "no headers here",
	})

	since, _, err := parseDateRange("01-Dec-2024", "")
	if err != nil {
		t.Fatal(err)
	}

	sources, err := alert.ParseSources("all")
	if err != nil {
		t.Fatal(err)
	}

	pubs, messages, warnings := readAlerts(dir, sources, since, time.Time{})
	if messages != 1 {
		t.Errorf("messages = %d, want 1 (stale and unknown-sender filtered)", messages)
	}
	if len(pubs) != 1 {
		t.Fatalf("pubs = %d, want 1", len(pubs))
	}
	if pubs[0].Title != "Adaptive immune repertoires" {
		t.Errorf("Title = %q", pubs[0].Title)
	}
	if pubs[0].URL != "https://example.org/p1" {
		t.Errorf("URL = %q", pubs[0].URL)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "garbage.eml") {
		t.Errorf("warnings = %v, want one for garbage.eml", warnings)
	}
}

func TestReadAlerts_SourceFilter(t *testing.T) {
	dir := writeAlertDir(t, map[string]string{"alert1.eml": scholarEML})

	sources, err := alert.ParseSources("myncbi-email")
	if err != nil {
		t.Fatal(err)
	}

	pubs, messages, _ := readAlerts(dir, sources, time.Time{}, time.Time{})
	if messages != 0 || len(pubs) != 0 {
		t.Errorf("got %d messages, %d pubs, want 0, 0", messages, len(pubs))
	}
}

func fixtureResult() triage.Result {
	res := triage.Result{Counts: make(map[triage.Class]int)}
	res.Classified = []triage.Classified{
		{
			Pub:     pub.Pub{Title: "Adaptive immune repertoires", URL: "https://example.org/p1", Year: 2024},
			Class:   triage.ClassNewlyReported,
			Sources: []string{"googlescholar-email"},
		},
		{
			Pub:     pub.Pub{Title: "A library paper", DOI: "10.1234/lib", Year: 2023},
			Class:   triage.ClassAlreadyInLibrary,
			Sources: []string{"myncbi-email"},
		},
	}
	for _, c := range res.Classified {
		res.Counts[c.Class]++
	}
	return res
}

func TestWriteCurationPage(t *testing.T) {
	res := fixtureResult()
	page := report.BuildPage(res, time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), report.Options{})

	path := filepath.Join(t.TempDir(), "curation.md")
	if err := writeCurationPage(path, "markdown", page); err != nil {
		t.Fatalf("writeCurationPage() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Adaptive immune repertoires") {
		t.Errorf("markdown page missing title:\n%s", data)
	}

	if err := writeCurationPage(filepath.Join(t.TempDir(), "c.html"), "html", page); err != nil {
		t.Errorf("writeCurationPage(html) error = %v", err)
	}
	if err := writeCurationPage(filepath.Join(t.TempDir(), "c.pdf"), "pdf", page); err == nil {
		t.Error("writeCurationPage() error = nil for unknown format")
	}
}

func TestWriteBibTeX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.bib")
	if err := writeBibTeX(path, fixtureResult()); err != nil {
		t.Fatalf("writeBibTeX() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	if !strings.Contains(got, "@article{") {
		t.Errorf("bibtex output missing entry:\n%s", got)
	}
	if strings.Contains(got, "A library paper") {
		t.Error("bibtex output includes a pub that is not newly reported")
	}
}

func TestClassCounts(t *testing.T) {
	counts := classCounts(fixtureResult())
	if counts["newly-reported"] != 1 || counts["already-in-library"] != 1 {
		t.Errorf("classCounts() = %v", counts)
	}
}
