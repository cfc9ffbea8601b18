package alert

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"pubspork/internal/pub"
)

// wileyAdapter parses Wiley Online Library saved-search alerts. Title
// anchors link into onlinelibrary.wiley.com/doi/..., so the DOI comes
// straight from the link. The journal follows in a span, the author
// list in the text after it with the issue date glued to the front.
type wileyAdapter struct{}

func (wileyAdapter) Source() Source { return SourceWiley }

func (wileyAdapter) Senders() []string {
	return []string{"wileyonlinelibrary@wiley.com"}
}

// wileyDateRe matches the issue date prefix on the author line, as in
// "March 2015Pieter-Jan L. Maenhaut, Hend Moens and Filip De Turck".
var wileyDateRe = regexp.MustCompile(`^.*\d{4}`)

func (a wileyAdapter) Parse(msg Message) ([]pub.Raw, error) {
	if msg.HTML == "" {
		return nil, fmt.Errorf("wiley alert has no html part")
	}
	doc, err := parseHTML(msg.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing wiley alert: %w", err)
	}

	const (
		wantTitle = iota
		wantJournal
		wantAuthors
		done
	)

	var pubs []pub.Raw
	var cur *pub.Raw
	state := wantTitle

	walk(doc, func(n *html.Node) bool {
		if state == done {
			return false
		}

		switch {
		case isElem(n, "a"):
			href := attr(n, "href")
			// The help-desk link marks the end of the result list.
			if strings.Contains(href, "journalshelp.wiley.com") {
				state = done
				return false
			}
			if state != wantTitle || !strings.Contains(href, "/doi/10.") {
				return true
			}
			pubs = append(pubs, pub.Raw{
				Title:  nodeText(n),
				URL:    href,
				DOI:    wileyDOI(href),
				Origin: string(SourceWiley),
			})
			cur = &pubs[len(pubs)-1]
			state = wantJournal
			return false

		case state == wantJournal && isElem(n, "span"):
			cur.Journal = nodeText(n)
			state = wantAuthors
			return false

		case state == wantAuthors && n.Type == html.TextNode:
			text := strings.TrimSpace(n.Data)
			if text == "" {
				return true
			}
			authors := strings.TrimSpace(wileyDateRe.ReplaceAllString(text, ""))
			if year := pub.ExtractYear(text); year != 0 {
				cur.Year = fmt.Sprint(year)
			}
			if authors != "" {
				cur.Authors = authors
				state = wantTitle
			}
			return true
		}
		return true
	})
	return pubs, nil
}

// wileyDOI cuts the registrant and suffix segments out of a /doi/
// link, dropping trailers like /abstract and query strings.
func wileyDOI(href string) string {
	if i := strings.IndexByte(href, '?'); i != -1 {
		href = href[:i]
	}
	_, rest, ok := strings.Cut(href, "/doi/")
	if !ok {
		return ""
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		return ""
	}
	return pub.CanonicalDOI(parts[0] + "/" + parts[1])
}
