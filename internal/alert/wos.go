package alert

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"pubspork/internal/pub"
)

// wosAdapter parses Web of Science alert emails. Each record opens
// with a title anchor of class smallV110 pointing into the WoS
// gateway, then an "Authors:" label, the journal in a <value> element,
// and a DOI link via dx.doi.org. The gateway link needs a login, so
// the DOI link doubles as the pub URL.
type wosAdapter struct{}

func (wosAdapter) Source() Source { return SourceWebOfScience }

func (wosAdapter) Senders() []string {
	return []string{
		"noreply@isiknowledge.com",
		"noreply@webofscience.com",
		"noreply@clarivate.com",
		"alerts-noreply@clarivate.com",
	}
}

func (a wosAdapter) Parse(msg Message) ([]pub.Raw, error) {
	if msg.HTML == "" {
		return nil, fmt.Errorf("web of science alert has no html part")
	}
	doc, err := parseHTML(msg.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing web of science alert: %w", err)
	}

	const (
		wantRecord = iota
		wantAuthorsLabel
		wantAuthors
		wantJournal
		wantDOI
	)

	var pubs []pub.Raw
	var cur *pub.Raw
	state := wantRecord

	walk(doc, func(n *html.Node) bool {
		switch {
		case isElem(n, "a") && hasClass(n, "smallV110"):
			pubs = append(pubs, pub.Raw{
				Title:  nodeText(n),
				Origin: string(SourceWebOfScience),
			})
			cur = &pubs[len(pubs)-1]
			state = wantAuthorsLabel
			return false

		case cur == nil:
			return true

		case n.Type == html.TextNode && state == wantAuthorsLabel:
			if strings.TrimSpace(n.Data) == "Authors:" {
				state = wantAuthors
			}
			return true

		case n.Type == html.TextNode && state == wantAuthors:
			if text := strings.TrimSpace(n.Data); text != "" {
				cur.Authors = text
				state = wantJournal
			}
			return true

		case isElem(n, "value"):
			switch state {
			case wantJournal:
				cur.Journal = nodeText(n)
				state = wantDOI
			case wantDOI:
				// Volume/issue/date values; keep the first plausible year.
				if cur.Year == "" {
					if year := pub.ExtractYear(nodeText(n)); year != 0 {
						cur.Year = fmt.Sprint(year)
					}
				}
			}
			return false

		case isElem(n, "a") && state == wantDOI:
			href := attr(n, "href")
			if doi := pub.CanonicalDOI(href); doi != "" {
				cur.DOI = doi
				cur.URL = href
				state = wantRecord
			}
			return false
		}
		return true
	})
	return pubs, nil
}
