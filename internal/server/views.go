package server

import (
	"github.com/goliatone/go-policyforge/pkg/visibility/expr"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

// Template-facing copies of the wizard view. Kinds are plain strings so
// template comparisons against literals work.
type stepView struct {
	StepIndex    int
	StepCount    int
	Title        string
	Description  string
	Progress     float64
	ShowPrev     bool
	ShowNext     bool
	ShowGenerate bool
	Busy         bool
	Fields       []fieldView
}

type fieldView struct {
	Name        string
	Label       string
	Kind        string
	Placeholder string
	Required    bool
	Value       string
	Invalid     bool
	Hidden      bool
	Options     []wizard.OptionView

	// ShowField and ShowValue are set when the field's visibility rule is a
	// plain equality the page script can apply as answers change.
	ShowField string
	ShowValue string
}

func newStepView(v wizard.ViewState) stepView {
	out := stepView{
		StepIndex:    v.StepIndex,
		StepCount:    v.StepCount,
		Title:        v.Title,
		Description:  v.Description,
		Progress:     v.Progress,
		ShowPrev:     v.ShowPrev,
		ShowNext:     v.ShowNext,
		ShowGenerate: v.ShowGenerate,
		Busy:         v.Busy,
	}
	for _, f := range v.Fields {
		fv := fieldView{
			Name:        f.Name,
			Label:       f.Label,
			Kind:        string(f.Kind),
			Placeholder: f.Placeholder,
			Required:    f.Required,
			Value:       f.Value,
			Invalid:     f.Invalid,
			Hidden:      f.Hidden,
			Options:     f.Options,
		}
		if rule, err := expr.Compile(f.VisibleWhen); err == nil {
			fv.ShowField, fv.ShowValue, _ = rule.Equality()
		}
		out.Fields = append(out.Fields, fv)
	}
	return out
}
