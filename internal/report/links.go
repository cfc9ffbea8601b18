// Package report renders the curation page and library summary
// reports.
package report

import (
	"fmt"
	"net/url"
	"strings"
)

// ProxySeparator selects how a paywall proxy rewrites the host part of
// a pub URL. Most proxies keep the dots; some replace them with
// dashes.
type ProxySeparator string

const (
	ProxyDot  ProxySeparator = "dot"
	ProxyDash ProxySeparator = "dash"
)

// ParseProxySeparator validates a separator argument, defaulting to
// dot when empty.
func ParseProxySeparator(s string) (ProxySeparator, error) {
	switch ProxySeparator(s) {
	case "", ProxyDot:
		return ProxyDot, nil
	case ProxyDash:
		return ProxyDash, nil
	}
	return "", fmt.Errorf("unknown proxy separator %q (want dot or dash)", s)
}

// ProxyURL rewrites a pub URL so it is fetched through a paywall
// proxy. The proxy string is appended to the host, as in
//
//	https://thisandthat.org/paper/etc
//	https://thisandthat.org.proxy1.library.jhu.edu/paper/etc
//
// With the dash separator the host's own dots become dashes first.
// An empty pub URL yields "".
func ProxyURL(pubURL, proxy string, sep ProxySeparator) string {
	if pubURL == "" || proxy == "" {
		return ""
	}
	u, err := url.Parse(pubURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if sep == ProxyDash {
		host = strings.ReplaceAll(host, ".", "-")
	}
	u.Host = host + proxy
	return u.String()
}

// Link is one clickable curation aid.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SearchLinks builds the title search links for one pub: an optional
// custom library catalog search followed by Google, Google Scholar,
// and PubMed. The title is appended to the custom URL the way the
// catalog expects, so the custom URL must end with its query prefix.
func SearchLinks(title, customSearchURL string) []Link {
	q := url.QueryEscape(title)
	var links []Link
	if customSearchURL != "" {
		links = append(links, Link{
			Name: "Search " + hostOf(customSearchURL),
			URL:  customSearchURL + q,
		})
	}
	links = append(links,
		Link{Name: "Search Google", URL: "https://www.google.com/search?q=" + q},
		Link{Name: "Search Google Scholar", URL: "https://scholar.google.com/scholar?q=" + q},
		Link{Name: "Search PubMed", URL: "https://www.ncbi.nlm.nih.gov/pubmed/?term=" + q},
	)
	return links
}

// hostOf returns scheme://host of a URL for link labels.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
