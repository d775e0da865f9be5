package countries

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrNoEntries is returned when a payload decodes to an empty list.
var ErrNoEntries = errors.New("countries: no entries")

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Decode parses the reference payload: a JSON array of objects carrying at
// least "name" and "emoji". Unknown keys are ignored, entries without a name
// are skipped, duplicates collapse to the first occurrence, and the result is
// sorted with Sort.
func Decode(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("countries: invalid JSON payload")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("countries: expected JSON array, got %s", root.Type)
	}

	entries := make([]Entry, 0, 256)
	seen := map[string]struct{}{}
	root.ForEach(func(_, value gjson.Result) bool {
		name := cleanText(value.Get("name").String())
		if name == "" {
			return true
		}
		if _, ok := seen[name]; ok {
			return true
		}
		seen[name] = struct{}{}
		entries = append(entries, Entry{
			Name:  name,
			Emoji: cleanText(value.Get("emoji").String()),
		})
		return true
	})

	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	Sort(entries)
	return entries, nil
}

// Sort orders entries by name using an English collator, so accented names
// sort next to their base letters ("Åland Islands" before "Albania").
func Sort(entries []Entry) {
	c := collate.New(language.English)
	sort.SliceStable(entries, func(i, j int) bool {
		return c.CompareString(entries[i].Name, entries[j].Name) < 0
	})
}

// cleanText strips any markup from remote values and returns plain text.
func cleanText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(trimmed)))
}
