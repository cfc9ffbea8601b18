// Package pdfdoi pulls DOIs out of article PDFs, for pubs whose alert
// never carried one.
package pdfdoi

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	pubmodel "pubspork/internal/pub"
)

// maxPages bounds the scan; the DOI is nearly always on page one.
const maxPages = 3

// DOI pattern: 10.XXXX/... where XXXX is 4+ digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// ExtractDOI scans the first pages of a PDF for a DOI and returns it
// in canonical form. A PDF without a DOI yields "" and no error.
func ExtractDOI(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if doi := FindDOI(text); doi != "" {
			return doi, nil
		}
	}
	return "", nil
}

// FindDOI returns the first valid DOI in a text, canonicalized, or "".
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if len(match) < 10 {
			continue
		}
		if doi := pubmodel.CanonicalDOI(match); doi != "" {
			return doi
		}
	}
	return ""
}
