// Package library reads curated publication library exports.
package library

import (
	"fmt"
	"os"

	"pubspork/internal/pub"
)

// Type identifies a library export format. The values double as the
// CLI --lib-type arguments.
type Type string

const (
	TypeZoteroCSV     Type = "zotero-csv"
	TypeCiteULikeJSON Type = "citeulike-json"
)

// Types returns every supported library type.
func Types() []Type {
	return []Type{TypeCiteULikeJSON, TypeZoteroCSV}
}

// Read parses a library export file of the given type. Records that
// cannot be used are reported in the error slice; the good ones are
// still returned.
func Read(t Type, path string) ([]pub.Raw, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fmt.Errorf("reading library: %w", err)}
	}

	switch t {
	case TypeZoteroCSV:
		return ParseZoteroCSV(data)
	case TypeCiteULikeJSON:
		return ParseCiteULikeJSON(data)
	default:
		return nil, []error{fmt.Errorf("unknown library type %q", t)}
	}
}
