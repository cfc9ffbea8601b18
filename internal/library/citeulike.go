package library

import (
	"encoding/json"
	"fmt"
	"strings"

	"pubspork/internal/pub"
)

// culEntry is one record of a CiteULike JSON library export.
type culEntry struct {
	ArticleID string   `json:"article_id"`
	Title     string   `json:"title"`
	DOI       string   `json:"doi"`
	Href      string   `json:"href"`
	Authors   []string `json:"authors"`
	Published []string `json:"published"`
	Journal   string   `json:"journal"`
	Tags      []string `json:"tags"`
	Date      string   `json:"date"`
}

// ParseCiteULikeJSON parses a CiteULike JSON library export. Authors
// arrive as a list of "First M. Last" names; the year is the first
// element of the published array.
func ParseCiteULikeJSON(data []byte) ([]pub.Raw, []error) {
	var entries []culEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, []error{fmt.Errorf("parsing CiteULike JSON: %w", err)}
	}

	var pubs []pub.Raw
	var errs []error

	for i, entry := range entries {
		if entry.Title == "" && entry.DOI == "" {
			errs = append(errs, fmt.Errorf("entry %d (%s): no title and no DOI", i+1, entry.ArticleID))
			continue
		}
		raw := pub.Raw{
			Title:   entry.Title,
			Authors: strings.Join(entry.Authors, "; "),
			DOI:     entry.DOI,
			URL:     entry.Href,
			Journal: entry.Journal,
			Origin:  string(TypeCiteULikeJSON),
		}
		if len(entry.Published) > 0 {
			raw.Year = entry.Published[0]
		}
		pubs = append(pubs, raw)
	}
	return pubs, errs
}
