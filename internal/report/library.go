package report

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"pubspork/internal/pub"
)

// YearCount is one row of the pubs-per-year table.
type YearCount struct {
	Year  int `json:"year"` // 0 means unknown
	Count int `json:"count"`
}

// JournalCount is one row of the pubs-per-journal table.
type JournalCount struct {
	Journal string `json:"journal"`
	Count   int    `json:"count"`
}

// LibraryReport summarizes a curated library.
type LibraryReport struct {
	Total    int            `json:"total"`
	Years    []YearCount    `json:"years"`
	Journals []JournalCount `json:"journals"`
}

// BuildLibraryReport counts pubs per publication year and per journal.
// Years come out ascending with unknown years last; journals by count
// descending, ties alphabetical.
func BuildLibraryReport(pubs []pub.Pub) LibraryReport {
	years := make(map[int]int)
	journals := make(map[string]int)
	for _, p := range pubs {
		years[p.Year]++
		if p.Journal != "" {
			journals[p.Journal]++
		}
	}

	rpt := LibraryReport{Total: len(pubs)}
	for year, n := range years {
		rpt.Years = append(rpt.Years, YearCount{Year: year, Count: n})
	}
	sort.Slice(rpt.Years, func(i, j int) bool {
		a, b := rpt.Years[i].Year, rpt.Years[j].Year
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})

	for journal, n := range journals {
		rpt.Journals = append(rpt.Journals, JournalCount{Journal: journal, Count: n})
	}
	sort.Slice(rpt.Journals, func(i, j int) bool {
		if rpt.Journals[i].Count != rpt.Journals[j].Count {
			return rpt.Journals[i].Count > rpt.Journals[j].Count
		}
		return rpt.Journals[i].Journal < rpt.Journals[j].Journal
	})
	return rpt
}

func yearLabel(year int) string {
	if year == 0 {
		return "unknown"
	}
	return fmt.Sprint(year)
}

var libraryTmpl = template.Must(template.New("library").Funcs(template.FuncMap{
	"yearLabel": yearLabel,
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Library report</title></head>
<body>
<h1>Library report</h1>
<p>{{.Total}} publications</p>
<h2>Publications per year</h2>
<table>
<tr><th>Year</th><th>#</th></tr>
{{- range .Years}}
<tr><td>{{yearLabel .Year}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
<h2>Publications per journal</h2>
<table>
<tr><th>Journal</th><th>#</th></tr>
{{- range .Journals}}
<tr><td>{{.Journal}}</td><td>{{.Count}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

// WriteLibraryHTML renders the library report as HTML.
func WriteLibraryHTML(w io.Writer, rpt LibraryReport) error {
	return libraryTmpl.Execute(w, rpt)
}

// WriteLibraryMarkdown renders the library report as Markdown tables.
func WriteLibraryMarkdown(w io.Writer, rpt LibraryReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Library report\n\n%d publications\n\n", rpt.Total)

	b.WriteString("## Publications per year\n\n| Year | # |\n| --- | --- |\n")
	for _, y := range rpt.Years {
		fmt.Fprintf(&b, "| %s | %d |\n", yearLabel(y.Year), y.Count)
	}

	b.WriteString("\n## Publications per journal\n\n| Journal | # |\n| --- | --- |\n")
	for _, j := range rpt.Journals {
		fmt.Fprintf(&b, "| %s | %d |\n", j.Journal, j.Count)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
