package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"pubspork/internal/triage"
)

// Options control curation page rendering.
type Options struct {
	Proxy           string
	ProxySeparator  ProxySeparator
	CustomSearchURL string
	// IncludeIgnored also lists pubs a human previously dismissed.
	// They are suppressed by default but still counted in the summary.
	IncludeIgnored bool
}

// Entry is one pub on the curation page.
type Entry struct {
	Title      string       `json:"title"`
	Authors    string       `json:"authors,omitempty"`
	Journal    string       `json:"journal,omitempty"`
	Year       int          `json:"year,omitempty"`
	DOI        string       `json:"doi,omitempty"`
	Class      triage.Class `json:"class"`
	Tier       string       `json:"tier,omitempty"`
	Sources    []string     `json:"sources,omitempty"`
	Annotation string       `json:"annotation,omitempty"`
	Links      []Link       `json:"links"`
}

// Page is the curation artifact for one match run.
type Page struct {
	Date    time.Time            `json:"date"`
	Counts  map[triage.Class]int `json:"counts"`
	Skipped int                  `json:"skipped"`
	Entries []Entry              `json:"entries"`
}

// BuildPage turns a match run into the curation page model. Pubs
// already in the library are listed after the ones needing attention.
func BuildPage(res triage.Result, now time.Time, opts Options) Page {
	page := Page{Date: now, Counts: res.Counts, Skipped: res.Skipped}

	classOrder := []triage.Class{
		triage.ClassNewlyReported,
		triage.ClassRepeatNew,
		triage.ClassAlreadyInLibrary,
		triage.ClassPreviouslyIgnored,
	}
	for _, class := range classOrder {
		if class == triage.ClassPreviouslyIgnored && !opts.IncludeIgnored {
			continue
		}
		for _, c := range res.Classified {
			if c.Class != class {
				continue
			}
			e := Entry{
				Title:   c.Pub.Title,
				Authors: strings.Join(c.Pub.Authors, "; "),
				Journal: c.Pub.Journal,
				Year:    c.Pub.Year,
				DOI:     c.Pub.DOI,
				Class:   c.Class,
				Sources: c.Sources,
			}
			if c.Tier != 0 {
				e.Tier = c.Tier.String()
			}
			if c.Entry != nil {
				e.Annotation = c.Entry.Annotation
			}
			e.Links = entryLinks(c, opts)
			page.Entries = append(page.Entries, e)
		}
	}
	return page
}

func entryLinks(c triage.Classified, opts Options) []Link {
	var links []Link
	if c.Pub.URL != "" {
		links = append(links, Link{Name: "See pub", URL: c.Pub.URL})
		if proxied := ProxyURL(c.Pub.URL, opts.Proxy, opts.ProxySeparator); proxied != "" {
			links = append(links, Link{Name: "See pub via proxy", URL: proxied})
		}
	}
	return append(links, SearchLinks(c.Pub.Title, opts.CustomSearchURL)...)
}

var curationTmpl = template.Must(template.New("curation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Publication curation {{.Date.Format "2006-01-02"}}</title></head>
<body>
<h1>Publication curation {{.Date.Format "2006-01-02"}}</h1>
<p>
{{- range $class, $count := .Counts}}
{{$class}}: {{$count}}<br>
{{- end}}
{{- if .Skipped}}
skipped: {{.Skipped}}<br>
{{- end}}
</p>
{{range .Entries}}
<div>
<h3>{{.Title}}</h3>
<p>{{.Class}}{{if .Tier}} ({{.Tier}} confidence){{end}}
{{- if .Sources}} &mdash; reported by {{range $i, $s := .Sources}}{{if $i}}, {{end}}{{$s}}{{end}}{{end}}</p>
{{- if .Authors}}
<p>{{.Authors}}</p>
{{- end}}
{{- if or .Journal .Year}}
<p>{{.Journal}}{{if and .Journal .Year}}, {{end}}{{if .Year}}{{.Year}}{{end}}</p>
{{- end}}
{{- if .DOI}}
<p>doi:{{.DOI}}</p>
{{- end}}
{{- if .Annotation}}
<p><em>{{.Annotation}}</em></p>
{{- end}}
<ul>
{{- range .Links}}
<li><a href="{{.URL}}">{{.Name}}</a></li>
{{- end}}
</ul>
</div>
{{end}}
</body>
</html>
`))

// WriteHTML renders the curation page as HTML.
func WriteHTML(w io.Writer, page Page) error {
	return curationTmpl.Execute(w, page)
}

// WriteMarkdown renders the curation page as Markdown.
func WriteMarkdown(w io.Writer, page Page) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Publication curation %s\n\n", page.Date.Format("2006-01-02"))
	for _, class := range []triage.Class{
		triage.ClassNewlyReported,
		triage.ClassRepeatNew,
		triage.ClassAlreadyInLibrary,
		triage.ClassPreviouslyIgnored,
	} {
		if n := page.Counts[class]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", class, n)
		}
	}
	if page.Skipped > 0 {
		fmt.Fprintf(&b, "- skipped: %d\n", page.Skipped)
	}
	b.WriteString("\n")

	for _, e := range page.Entries {
		fmt.Fprintf(&b, "## %s\n\n", e.Title)
		fmt.Fprintf(&b, "%s", e.Class)
		if e.Tier != "" {
			fmt.Fprintf(&b, " (%s confidence)", e.Tier)
		}
		if len(e.Sources) > 0 {
			fmt.Fprintf(&b, ", reported by %s", strings.Join(e.Sources, ", "))
		}
		b.WriteString("\n\n")
		if e.Authors != "" {
			fmt.Fprintf(&b, "%s\n\n", e.Authors)
		}
		if e.Journal != "" || e.Year != 0 {
			if e.Journal != "" && e.Year != 0 {
				fmt.Fprintf(&b, "%s, %d\n\n", e.Journal, e.Year)
			} else if e.Journal != "" {
				fmt.Fprintf(&b, "%s\n\n", e.Journal)
			} else {
				fmt.Fprintf(&b, "%d\n\n", e.Year)
			}
		}
		if e.DOI != "" {
			fmt.Fprintf(&b, "doi:%s\n\n", e.DOI)
		}
		if e.Annotation != "" {
			fmt.Fprintf(&b, "*%s*\n\n", e.Annotation)
		}
		for _, l := range e.Links {
			fmt.Fprintf(&b, "- [%s](%s)\n", l.Name, l.URL)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
