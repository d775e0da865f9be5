package wizard

// OptionView is a radio or checkbox choice with its checked state.
type OptionView struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// FieldView is what a front end needs to draw one input.
type FieldView struct {
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Kind        FieldKind    `json:"kind"`
	Placeholder string       `json:"placeholder,omitempty"`
	Required    bool         `json:"required"`
	Value       string       `json:"value,omitempty"`
	Values      []string     `json:"values,omitempty"`
	Options     []OptionView `json:"options,omitempty"`
	Invalid     bool         `json:"invalid"`
	Hidden      bool         `json:"hidden"`
	VisibleWhen string       `json:"visibleWhen,omitempty"`
}

// ViewState describes the active step panel and the navigation controls.
type ViewState struct {
	StepIndex    int         `json:"stepIndex"`
	StepCount    int         `json:"stepCount"`
	StepID       string      `json:"stepId"`
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	Fields       []FieldView `json:"fields"`
	Progress     float64     `json:"progress"`
	ShowPrev     bool        `json:"showPrev"`
	ShowNext     bool        `json:"showNext"`
	ShowGenerate bool        `json:"showGenerate"`
	Busy         bool        `json:"busy"`
}

// Progress returns the completion percentage for a step index:
// (index+1)/count*100.
func Progress(index, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(index+1) / float64(count) * 100
}

// View snapshots the active step.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.def.Steps[c.index]
	last := c.isLast()
	state := ViewState{
		StepIndex:    c.index,
		StepCount:    len(c.def.Steps),
		StepID:       step.ID,
		Title:        step.Title,
		Description:  step.Description,
		Progress:     Progress(c.index, len(c.def.Steps)),
		ShowPrev:     c.index > 0,
		ShowNext:     !last,
		ShowGenerate: last,
		Busy:         c.busy,
	}

	for _, field := range step.Fields {
		state.Fields = append(state.Fields, c.fieldView(field))
	}
	return state
}

func (c *Controller) fieldView(field Field) FieldView {
	current := c.values[field.Name]
	view := FieldView{
		Name:        field.Name,
		Label:       field.Label,
		Kind:        field.Kind,
		Placeholder: field.Placeholder,
		Required:    field.Required || field.Kind == KindCountry,
		Values:      append([]string(nil), current...),
		Invalid:     c.invalid[field.Name],
		Hidden:      !c.visible(field),
		VisibleWhen: field.VisibleWhen,
	}
	if len(current) > 0 {
		view.Value = current[0]
	}
	if len(field.Options) > 0 {
		selected := make(map[string]struct{}, len(current))
		for _, v := range current {
			selected[v] = struct{}{}
		}
		for _, opt := range field.Options {
			_, checked := selected[opt.Value]
			view.Options = append(view.Options, OptionView{
				Value:   opt.Value,
				Label:   opt.Label,
				Checked: checked,
			})
		}
	}
	return view
}
