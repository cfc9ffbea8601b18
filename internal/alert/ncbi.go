package alert

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"pubspork/internal/pub"
)

// ncbiAdapter parses My NCBI (PubMed) saved-search alerts. Each pub
// spans consecutive table rows: the title link into PubMed, then the
// author list, then the citation row carrying the journal span and
// the DOI.
type ncbiAdapter struct{}

func (ncbiAdapter) Source() Source { return SourceMyNCBI }

func (ncbiAdapter) Senders() []string {
	return []string{"efback@ncbi.nlm.nih.gov"}
}

var ncbiDOIRe = regexp.MustCompile(`doi:\s*(10\.\S+)`)

func (a ncbiAdapter) Parse(msg Message) ([]pub.Raw, error) {
	if msg.HTML == "" {
		return nil, fmt.Errorf("ncbi alert has no html part")
	}
	doc, err := parseHTML(msg.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing ncbi alert: %w", err)
	}

	const (
		wantTitle = iota
		wantAuthors
		wantCitation
	)

	var pubs []pub.Raw
	var cur *pub.Raw
	state := wantTitle

	walk(doc, func(n *html.Node) bool {
		if !isElem(n, "tr") {
			return true
		}

		if link := ncbiTitleLink(n); link != nil {
			pubs = append(pubs, pub.Raw{
				Title:  strings.TrimSuffix(nodeText(link), "."),
				URL:    attr(link, "href"),
				Origin: string(SourceMyNCBI),
			})
			cur = &pubs[len(pubs)-1]
			state = wantAuthors
			return false
		}
		if cur == nil {
			return false
		}

		switch state {
		case wantAuthors:
			cur.Authors = strings.TrimSuffix(nodeText(n), ".")
			state = wantCitation
		case wantCitation:
			text := nodeText(n)
			walk(n, func(c *html.Node) bool {
				if isElem(c, "span") && hasClass(c, "jrnl") {
					// The title attribute carries the unabbreviated name.
					if cur.Journal = attr(c, "title"); cur.Journal == "" {
						cur.Journal = nodeText(c)
					}
					return false
				}
				return true
			})
			if m := ncbiDOIRe.FindStringSubmatch(text); m != nil {
				cur.DOI = strings.TrimSuffix(m[1], ".")
			}
			if year := pub.ExtractYear(text); year != 0 {
				cur.Year = fmt.Sprint(year)
			}
			state = wantTitle
		}
		return false
	})
	return pubs, nil
}

// ncbiTitleLink returns the row's PubMed title anchor, skipping the
// "similar articles" links NCBI also embeds.
func ncbiTitleLink(tr *html.Node) *html.Node {
	for _, a := range anchors(tr) {
		href := attr(a, "href")
		if strings.Contains(href, "pubmed") &&
			!strings.Contains(href, "linkname=pubmed_pubmed") {
			return a
		}
	}
	return nil
}
