package alert

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// parseHTML parses a message body. x/net/html never fails on malformed
// markup, which matters here: alert emails are machine-generated but
// rarely valid HTML.
func parseHTML(body string) (*html.Node, error) {
	return html.Parse(strings.NewReader(body))
}

// walk visits every node in document order. The visitor returning
// false prunes that node's subtree.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// isElem reports whether n is an element with the given tag name.
func isElem(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// hasClass reports whether the node's class attribute contains the
// given class.
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText returns the node's text content with runs of whitespace
// collapsed to single spaces.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteString(" ")
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// anchors returns every <a> element under n, in document order.
func anchors(n *html.Node) []*html.Node {
	var out []*html.Node
	walk(n, func(c *html.Node) bool {
		if isElem(c, "a") {
			out = append(out, c)
		}
		return true
	})
	return out
}

// unwrapRedirect extracts the target from a tracking or redirect URL.
// The real URL sits in the named query parameter; when the parameter
// is absent the wrapper URL itself is returned.
func unwrapRedirect(raw, param string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get(param); target != "" {
		return target
	}
	return raw
}
