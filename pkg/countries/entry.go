package countries

import "strings"

// Entry is one item of the reference list.
type Entry struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// Label is the text shown for a selected entry: flag followed by name.
func (e Entry) Label() string {
	if e.Emoji == "" {
		return e.Name
	}
	return e.Emoji + " " + e.Name
}

// Option is the JSON shape served by the search API. Label carries the flag
// so clients can render it without joining fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Emoji string `json:"emoji,omitempty"`
}

func toOption(e Entry) Option {
	return Option{Value: e.Name, Label: e.Label(), Emoji: e.Emoji}
}

// Find returns the entry whose name matches exactly.
func Find(entries []Entry, name string) (Entry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, false
	}
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
