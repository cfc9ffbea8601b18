// Package export converts publications to formats reference managers
// can import.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"pubspork/internal/pub"
)

// ToBibTeX converts one publication to a BibTeX entry.
func ToBibTeX(p pub.Pub) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@article{%s,\n", CiteKey(p)))

	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", strings.Join(p.Authors, " and ")))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	if p.Journal != "" {
		b.WriteString(fmt.Sprintf("  journal = {%s},\n", escapeLatex(p.Journal)))
	}
	if p.Year != 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Year))
	}
	if p.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", p.DOI))
	}
	if p.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.URL))
	}

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList converts multiple publications to BibTeX format.
func ToBibTeXList(pubs []pub.Pub) string {
	var entries []string
	for _, p := range pubs {
		entries = append(entries, ToBibTeX(p))
	}
	return strings.Join(entries, "\n")
}

// CiteKey generates a citation key from the first author's last name,
// the year, and the first title word, as in "smith2020deep". Pubs
// with no usable parts get the canonical title alone.
func CiteKey(p pub.Pub) string {
	var parts []string

	if len(p.Authors) > 0 {
		parts = append(parts, pub.Canonical(lastName(p.Authors[0])))
	}
	if p.Year != 0 {
		parts = append(parts, fmt.Sprint(p.Year))
	}
	if word := firstTitleWord(p.Title); word != "" {
		parts = append(parts, word)
	}

	key := strings.Join(parts, "")
	if key == "" {
		key = p.CanonicalTitle
	}
	return key
}

// lastName extracts the last name from one author string, handling
// both "Last, First I." and "First I. Last" forms.
func lastName(author string) string {
	if i := strings.Index(author, ","); i != -1 {
		return strings.TrimSpace(author[:i])
	}
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// firstTitleWord returns the first title word longer than three
// letters, lower cased, to keep cite keys readable.
func firstTitleWord(title string) string {
	for _, field := range strings.Fields(title) {
		word := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, field)
		if len(word) > 3 {
			return word
		}
	}
	return ""
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
