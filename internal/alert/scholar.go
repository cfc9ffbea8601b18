package alert

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"pubspork/internal/pub"
)

// scholarAdapter parses Google Scholar alert emails. Each reported pub
// is an <h3> holding the title link, followed by a byline div:
//
//	EB Alonso, L Cockx, J Swinnen - Journal of X, 2020
//
// Title links are wrapped in a scholar_url redirect; the real target
// sits in the q or url query parameter.
type scholarAdapter struct{}

func (scholarAdapter) Source() Source { return SourceGoogleScholar }

func (scholarAdapter) Senders() []string {
	return []string{"scholaralerts-noreply@google.com"}
}

func (a scholarAdapter) Parse(msg Message) ([]pub.Raw, error) {
	if msg.HTML == "" {
		return nil, fmt.Errorf("google scholar alert has no html part")
	}
	doc, err := parseHTML(msg.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing google scholar alert: %w", err)
	}

	var pubs []pub.Raw
	walk(doc, func(n *html.Node) bool {
		if !isElem(n, "h3") {
			return true
		}
		links := anchors(n)
		if len(links) == 0 {
			return false
		}

		raw := pub.Raw{
			Title:  nodeText(links[0]),
			URL:    scholarTarget(attr(links[0], "href")),
			Origin: string(SourceGoogleScholar),
		}
		if byline := scholarByline(n); byline != "" {
			// Authors come first; the source and year follow a dash.
			parts := strings.SplitN(byline, "- ", 2)
			raw.Authors = strings.TrimSpace(parts[0])
			if len(parts) == 2 {
				ref := strings.TrimSpace(parts[1])
				if year := pub.ExtractYear(ref); year != 0 {
					raw.Year = fmt.Sprint(year)
				}
				if i := strings.LastIndex(ref, ","); i > 0 {
					raw.Journal = strings.TrimSpace(ref[:i])
				}
			}
		}
		pubs = append(pubs, raw)
		return false
	})
	return pubs, nil
}

// scholarTarget unwraps a scholar_url redirect. Older alerts used q=,
// newer ones url=; links straight into Scholar have neither.
func scholarTarget(href string) string {
	if target := unwrapRedirect(href, "url"); target != href {
		return target
	}
	return unwrapRedirect(href, "q")
}

// scholarByline returns the text of the author/source div that follows
// the title h3.
func scholarByline(h3 *html.Node) string {
	for s := h3.NextSibling; s != nil; s = s.NextSibling {
		if isElem(s, "div") || isElem(s, "font") {
			return nodeText(s)
		}
	}
	return ""
}
