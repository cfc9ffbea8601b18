package alert

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"pubspork/internal/pub"
)

const sdArticleBaseURL = "http://www.sciencedirect.com/science/article/pii/"

// scienceDirectAdapter parses ScienceDirect saved-search alerts. Each
// pub starts with a td of class txtcontent whose link carries the PII
// in the _piikey parameter; the title, journal, and authors follow in
// artTitle, <i>, and authorTxt nodes. The emails never carry a DOI.
type scienceDirectAdapter struct{}

func (scienceDirectAdapter) Source() Source { return SourceScienceDirect }

func (scienceDirectAdapter) Senders() []string {
	return []string{"salert@prod.sciencedirect.com"}
}

func (a scienceDirectAdapter) Parse(msg Message) ([]pub.Raw, error) {
	if msg.HTML == "" {
		return nil, fmt.Errorf("sciencedirect alert has no html part")
	}
	doc, err := parseHTML(msg.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing sciencedirect alert: %w", err)
	}

	var pubs []pub.Raw
	var cur *pub.Raw

	walk(doc, func(n *html.Node) bool {
		switch {
		case isElem(n, "td") && hasClass(n, "txtcontent"):
			pubs = append(pubs, pub.Raw{Origin: string(SourceScienceDirect)})
			cur = &pubs[len(pubs)-1]
			if links := anchors(n); len(links) > 0 {
				cur.URL = sdArticleURL(attr(links[0], "href"))
			}
			return true

		case cur == nil:
			return true

		case isElem(n, "span") && hasClass(n, "artTitle"):
			cur.Title = nodeText(n)
			return false

		case isElem(n, "i") && cur.Journal == "":
			cur.Journal = nodeText(n)
			return false

		case isElem(n, "span") && hasClass(n, "authorTxt"):
			cur.Authors = nodeText(n)
			return false
		}
		return true
	})

	// Drop result blocks that never produced a title, such as the
	// "Access all new results" footer cell.
	kept := pubs[:0]
	for _, p := range pubs {
		if p.Title != "" {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// sdArticleURL rebuilds the public article URL from the _piikey
// parameter of the alert's tracking link. Links without a PII are
// passed through untouched.
func sdArticleURL(href string) string {
	for _, arg := range strings.Split(href, "&") {
		if key, ok := strings.CutPrefix(arg, "_piikey="); ok {
			return sdArticleBaseURL + key
		}
	}
	return href
}
