package countries

// ClickTarget identifies where a click landed relative to the picker.
type ClickTarget int

const (
	// ClickTrigger is the control that opens and closes the menu.
	ClickTrigger ClickTarget = iota
	// ClickSearch is the search input inside the open menu.
	ClickSearch
	// ClickInside is any other point inside the picker's root region.
	ClickInside
	// ClickOutside is anywhere else on the page.
	ClickOutside
)

// Picker is the state behind the searchable country dropdown. The reference
// list it is given is never modified; filtering only changes what is
// visible.
type Picker struct {
	entries  []Entry
	visible  []Entry
	term     string
	open     bool
	selected Entry
	chosen   bool
}

// PickerView is the render description of a picker.
type PickerView struct {
	Open  bool    `json:"open"`
	Term  string  `json:"term"`
	Value string  `json:"value"`
	Label string  `json:"label"`
	Items []Entry `json:"items"`
}

// NewPicker returns a closed picker over entries.
func NewPicker(entries []Entry) *Picker {
	p := &Picker{}
	p.SetEntries(entries)
	return p
}

// SetEntries swaps the reference list, e.g. once a fetch completes, and
// resets the visible list to it.
func (p *Picker) SetEntries(entries []Entry) {
	p.entries = append([]Entry{}, entries...)
	p.visible = p.entries
	if p.term != "" {
		p.visible = Filter(p.entries, p.term)
	}
}

// Entries returns the reference list.
func (p *Picker) Entries() []Entry {
	return append([]Entry{}, p.entries...)
}

// IsOpen reports whether the menu is shown.
func (p *Picker) IsOpen() bool { return p.open }

// Open shows the menu.
func (p *Picker) Open() { p.open = true }

// Close hides the menu, clears the search term, and restores the full list.
func (p *Picker) Close() {
	p.open = false
	p.term = ""
	p.visible = p.entries
}

// Toggle opens a closed menu and closes an open one.
func (p *Picker) Toggle() {
	if p.open {
		p.Close()
		return
	}
	p.Open()
}

// Click routes a click: the trigger toggles, clicks inside the picker
// (including the search input) are ignored, and clicks outside close it.
func (p *Picker) Click(target ClickTarget) {
	switch target {
	case ClickTrigger:
		p.Toggle()
	case ClickOutside:
		p.Close()
	}
}

// Filter narrows the visible list to names containing term.
func (p *Picker) Filter(term string) {
	p.term = term
	p.visible = Filter(p.entries, term)
}

// Term returns the current search term.
func (p *Picker) Term() string { return p.term }

// Visible returns the entries currently listed.
func (p *Picker) Visible() []Entry {
	return append([]Entry{}, p.visible...)
}

// Select records entry as the chosen country and closes the menu.
func (p *Picker) Select(entry Entry) {
	p.selected = entry
	p.chosen = true
	p.Close()
}

// SelectByName selects the reference entry called name. It reports false,
// leaving the selection untouched, when no entry matches.
func (p *Picker) SelectByName(name string) bool {
	entry, ok := Find(p.entries, name)
	if !ok {
		return false
	}
	p.Select(entry)
	return true
}

// Selected returns the chosen entry.
func (p *Picker) Selected() (Entry, bool) {
	return p.selected, p.chosen
}

// Value is the form value of the picker: the chosen name or "".
func (p *Picker) Value() string {
	if !p.chosen {
		return ""
	}
	return p.selected.Name
}

// Label is the trigger text: flag and name of the chosen entry, or the
// placeholder.
func (p *Picker) Label(placeholder string) string {
	if !p.chosen {
		return placeholder
	}
	return p.selected.Label()
}

// Contains reports whether name is part of the reference list.
func (p *Picker) Contains(name string) bool {
	_, ok := Find(p.entries, name)
	return ok
}

// View describes the picker for rendering.
func (p *Picker) View(placeholder string) PickerView {
	return PickerView{
		Open:  p.open,
		Term:  p.term,
		Value: p.Value(),
		Label: p.Label(placeholder),
		Items: p.Visible(),
	}
}
