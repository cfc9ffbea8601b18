package library

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"pubspork/internal/pub"
)

// ParseZoteroCSV parses a Zotero CSV library export. Zotero exports
// carry a BOM and quote every field; authors arrive as a semicolon
// separated list of "Last, First I." names.
func ParseZoteroCSV(data []byte) ([]pub.Raw, []error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, []error{fmt.Errorf("parsing Zotero CSV: %w", err)}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["Title"]; !ok {
		return nil, []error{fmt.Errorf("Zotero CSV has no Title column")}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var pubs []pub.Raw
	var errs []error

	for n, row := range rows[1:] {
		raw := pub.Raw{
			Title:   field(row, "Title"),
			Authors: field(row, "Author"),
			DOI:     field(row, "DOI"),
			URL:     field(row, "Url"),
			Year:    field(row, "Publication Year"),
			Journal: field(row, "Publication Title"),
			Origin:  string(TypeZoteroCSV),
		}
		if raw.Title == "" && raw.DOI == "" {
			errs = append(errs, fmt.Errorf("row %d: no title and no DOI", n+2))
			continue
		}
		pubs = append(pubs, raw)
	}
	return pubs, errs
}
