package countries

import (
	"sort"
	"strings"
)

// Filter returns the entries whose name contains term, ignoring case, in the
// order of the input. The input slice is never modified; an empty term
// returns a copy of every entry.
func Filter(entries []Entry, term string) []Entry {
	if term == "" {
		return append([]Entry{}, entries...)
	}
	needle := strings.ToLower(term)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Search trims query and ranks entries whose name starts with it ahead of
// those that merely contain it, keeping catalog order within each group. An
// empty query returns the head of the list. A positive limit caps the result.
func Search(entries []Entry, query string, limit int) []Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		return append([]Entry{}, entries...)
	}

	needle := strings.ToLower(query)
	matches := Filter(entries, query)
	sort.SliceStable(matches, func(i, j int) bool {
		pi := strings.HasPrefix(strings.ToLower(matches[i].Name), needle)
		pj := strings.HasPrefix(strings.ToLower(matches[j].Name), needle)
		return pi && !pj
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
