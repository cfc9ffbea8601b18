// Package alert turns source-specific publication alert emails into
// raw publication records.
package alert

import (
	"fmt"
	"sort"
	"strings"

	"pubspork/internal/pub"
)

// Source identifies an alert service. The values double as the CLI
// --sources arguments.
type Source string

const (
	SourceGoogleScholar Source = "googlescholar-email"
	SourceMyNCBI        Source = "myncbi-email"
	SourceScienceDirect Source = "sciencedirect-email"
	SourceWiley         Source = "wiley-email"
	SourceWebOfScience  Source = "webofscience-email"
)

// Adapter parses one alert source's messages into raw records. Each
// source format gets exactly one implementation; selection happens by
// source tag, never by conditional dispatch on message content.
type Adapter interface {
	// Source returns the tag this adapter handles.
	Source() Source
	// Senders returns the email addresses the service sends from.
	Senders() []string
	// Parse extracts the publications reported by one message.
	Parse(msg Message) ([]pub.Raw, error)
}

// adapters is the fixed registry of known sources.
var adapters = map[Source]Adapter{
	SourceGoogleScholar: &scholarAdapter{},
	SourceMyNCBI:        &ncbiAdapter{},
	SourceScienceDirect: &scienceDirectAdapter{},
	SourceWiley:         &wileyAdapter{},
	SourceWebOfScience:  &wosAdapter{},
}

// Sources returns every known source tag, sorted for stable output.
func Sources() []Source {
	out := make([]Source, 0, len(adapters))
	for s := range adapters {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ForSource returns the adapter for a source tag.
func ForSource(s Source) (Adapter, error) {
	a, ok := adapters[s]
	if !ok {
		return nil, fmt.Errorf("unknown alert source %q", s)
	}
	return a, nil
}

// ForSender returns the adapter whose service sends from the given
// address, or nil when no adapter claims it.
func ForSender(addr string) Adapter {
	addr = strings.ToLower(strings.TrimSpace(addr))
	for _, a := range adapters {
		for _, sender := range a.Senders() {
			if strings.Contains(addr, sender) {
				return a
			}
		}
	}
	return nil
}

// ParseSources resolves a comma-separated source list; "all" selects
// every known source.
func ParseSources(arg string) ([]Source, error) {
	if strings.TrimSpace(arg) == "" || arg == "all" {
		return Sources(), nil
	}
	var out []Source
	for _, part := range strings.Split(arg, ",") {
		s := Source(strings.TrimSpace(part))
		if _, err := ForSource(s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
