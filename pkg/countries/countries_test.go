package countries

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleEntries() []Entry {
	return []Entry{
		{Name: "France", Emoji: "🇫🇷"},
		{Name: "Germany", Emoji: "🇩🇪"},
		{Name: "Åland Islands", Emoji: "🇦🇽"},
		{Name: "Albania", Emoji: "🇦🇱"},
	}
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestDecode_SortsSkipsAndDedupes(t *testing.T) {
	payload := []byte(`[
		{"name": "Germany", "emoji": "🇩🇪", "code": "DE", "unicode": "U+1F1E9 U+1F1EA"},
		{"name": "France", "emoji": "🇫🇷"},
		{"name": "", "emoji": "🏳"},
		{"emoji": "🏴"},
		{"name": "France", "emoji": "🇫🇷"},
		{"name": "Åland Islands", "emoji": "🇦🇽"},
		{"name": "Albania", "emoji": "🇦🇱"}
	]`)

	entries, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Åland Islands", "Albania", "France", "Germany"}
	if diff := cmp.Diff(want, names(entries)); diff != "" {
		t.Fatalf("decoded names mismatch (-want +got):\n%s", diff)
	}
	if entries[2].Emoji != "🇫🇷" {
		t.Fatalf("expected emoji to be kept, got %q", entries[2].Emoji)
	}
}

func TestDecode_StripsMarkup(t *testing.T) {
	entries, err := Decode([]byte(`[{"name": "<b>Bosnia & Herzegovina</b>", "emoji": "<script>x</script>🇧🇦"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entries[0].Name != "Bosnia & Herzegovina" {
		t.Fatalf("unexpected name %q", entries[0].Name)
	}
	if entries[0].Emoji != "🇧🇦" {
		t.Fatalf("unexpected emoji %q", entries[0].Emoji)
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
	if _, err := Decode([]byte(`{"name": "France"}`)); err == nil {
		t.Fatalf("expected non-array error")
	}
	if _, err := Decode([]byte(`[]`)); !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
}

func TestFilter_CaseInsensitiveSubstring(t *testing.T) {
	entries := []Entry{{Name: "France"}, {Name: "Germany"}}

	if diff := cmp.Diff([]string{"France"}, names(Filter(entries, "fra"))); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Germany"}, names(Filter(entries, "MAN"))); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
	if got := Filter(entries, "xyz"); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
	if diff := cmp.Diff([]string{"France", "Germany"}, names(Filter(entries, ""))); diff != "" {
		t.Fatalf("empty term should return all (-want +got):\n%s", diff)
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	entries := sampleEntries()
	before := append([]Entry{}, entries...)

	_ = Filter(entries, "an")

	if diff := cmp.Diff(before, entries); diff != "" {
		t.Fatalf("input mutated (-want +got):\n%s", diff)
	}
}

func TestSearch_PrefixBeforeContains(t *testing.T) {
	entries := []Entry{{Name: "Bermuda"}, {Name: "Germany"}, {Name: "Oman"}, {Name: "Mali"}}
	Sort(entries)

	got := names(Search(entries, " ma ", 10))
	want := []string{"Mali", "Germany", "Oman"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("search ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch_EmptyQueryListsHead(t *testing.T) {
	entries := sampleEntries()

	got := Search(entries, "  ", 2)
	if diff := cmp.Diff(entries[:2], got); diff != "" {
		t.Fatalf("head mismatch (-want +got):\n%s", diff)
	}
	if got := Search(entries, "", 0); len(got) != len(entries) {
		t.Fatalf("expected every entry without a limit, got %d", len(got))
	}
}

func TestSearch_Limit(t *testing.T) {
	entries := sampleEntries()

	if got := Search(entries, "a", 1); len(got) != 1 {
		t.Fatalf("expected one match, got %v", got)
	}
	if got := Search(entries, "zzz", 5); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestEntryLabel(t *testing.T) {
	if got := (Entry{Name: "France", Emoji: "🇫🇷"}).Label(); got != "🇫🇷 France" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := (Entry{Name: "Nowhere"}).Label(); got != "Nowhere" {
		t.Fatalf("unexpected label %q", got)
	}
}
