package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-policyforge/internal/logging"
	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

const (
	navContinue = "Continue"
	navGenerate = "Generate policy"
	navBack     = "Back"

	countryPageSize = 12
)

// Option configures a Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithCountries supplies the entries offered by the country prompt. Without
// entries the country is typed free-form.
func WithCountries(source countries.Source) Option {
	return func(r *Runner) { r.countries = source }
}

// WithLogger sets the runner logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner walks a wizard.Controller step by step through a PromptDriver.
type Runner struct {
	wizard    *wizard.Controller
	driver    PromptDriver
	countries countries.Source
	logger    logrus.FieldLogger
}

// NewRunner builds a runner for ctrl. The survey driver is used unless
// WithPromptDriver says otherwise.
func NewRunner(ctrl *wizard.Controller, options ...Option) (*Runner, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	r := &Runner{
		wizard: ctrl,
		logger: logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r, nil
}

// Run asks every step until the user generates the policy and returns the
// assembled fragment. After the first step the user may go back instead of
// continuing; a step that fails validation is asked again.
func (r *Runner) Run(ctx context.Context) (string, error) {
	for {
		view := r.wizard.View()
		if err := r.askStep(ctx, view); err != nil {
			return "", err
		}

		if view.ShowPrev {
			forward := navContinue
			if view.ShowGenerate {
				forward = navGenerate
			}
			choice, err := r.driver.Select(ctx, SelectConfig{
				Message: fmt.Sprintf("Step %d of %d", view.StepIndex+1, view.StepCount),
				Options: []string{forward, navBack},
			})
			if err != nil {
				return "", err
			}
			if choice == 1 {
				r.wizard.GoPrev()
				continue
			}
		}

		if !view.ShowGenerate {
			if !r.wizard.GoNext() {
				if err := r.reportInvalid(ctx); err != nil {
					return "", err
				}
			}
			continue
		}

		if err := r.driver.Info(ctx, "Generating your privacy policy..."); err != nil {
			return "", err
		}
		doc, err := r.wizard.Generate(ctx)
		if errors.Is(err, wizard.ErrIncomplete) {
			if err := r.reportInvalid(ctx); err != nil {
				return "", err
			}
			r.wizard.RewindToInvalid()
			continue
		}
		if err != nil {
			return "", err
		}
		return doc, nil
	}
}

func (r *Runner) askStep(ctx context.Context, view wizard.ViewState) error {
	header := view.Title
	if view.Description != "" {
		header += "\n" + view.Description
	}
	if err := r.driver.Info(ctx, fmt.Sprintf("[%3.0f%%] %s", view.Progress, header)); err != nil {
		return err
	}
	for _, field := range view.Fields {
		// Answers earlier in the step can hide later fields.
		current, ok := r.currentField(field.Name)
		if !ok || current.Hidden {
			continue
		}
		values, err := r.askField(ctx, current)
		if err != nil {
			return err
		}
		r.wizard.Set(current.Name, values...)
	}
	return nil
}

func (r *Runner) currentField(name string) (wizard.FieldView, bool) {
	for _, field := range r.wizard.View().Fields {
		if field.Name == name {
			return field, true
		}
	}
	return wizard.FieldView{}, false
}

func (r *Runner) askField(ctx context.Context, field wizard.FieldView) ([]string, error) {
	switch field.Kind {
	case wizard.KindRadio:
		labels, values := optionLabels(field.Options)
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      field.Label,
			Options:      labels,
			DefaultIndex: firstChecked(field.Options),
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(values) {
			return nil, nil
		}
		return []string{values[idx]}, nil

	case wizard.KindCheckbox:
		labels, values := optionLabels(field.Options)
		var defaults []int
		for i, opt := range field.Options {
			if opt.Checked {
				defaults = append(defaults, i)
			}
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  field.Label,
			Options:  labels,
			Defaults: defaults,
		})
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(values) {
				out = append(out, values[idx])
			}
		}
		return out, nil

	case wizard.KindCountry:
		if entries := r.entries(); len(entries) > 0 {
			return r.askCountry(ctx, field, entries)
		}
	}

	answer, err := r.driver.Input(ctx, InputConfig{
		Message:   field.Label,
		Default:   field.Value,
		Help:      field.Placeholder,
		Validator: requiredValidator(field),
	})
	if err != nil {
		return nil, err
	}
	return []string{strings.TrimSpace(answer)}, nil
}

func (r *Runner) askCountry(ctx context.Context, field wizard.FieldView, entries []countries.Entry) ([]string, error) {
	labels := make([]string, len(entries))
	defaultIdx := -1
	for i, entry := range entries {
		labels[i] = entry.Label()
		if entry.Name == field.Value {
			defaultIdx = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      field.Label,
		Options:      labels,
		DefaultIndex: defaultIdx,
		Help:         "Type to search",
		PageSize:     countryPageSize,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(entries) {
		return nil, nil
	}
	return []string{entries[idx].Name}, nil
}

func (r *Runner) entries() []countries.Entry {
	if r.countries == nil {
		return nil
	}
	return r.countries.Entries()
}

func (r *Runner) reportInvalid(ctx context.Context) error {
	var names []string
	for _, field := range r.wizard.View().Fields {
		if field.Invalid {
			names = append(names, field.Label)
		}
	}
	r.logger.WithField("fields", names).Debug("step incomplete")
	if len(names) == 0 {
		return r.driver.Info(ctx, "Please complete the required fields.")
	}
	return r.driver.Info(ctx, "Please complete the required fields: "+strings.Join(names, ", "))
}

func requiredValidator(field wizard.FieldView) func(string) error {
	if !field.Required {
		return nil
	}
	return func(answer string) error {
		if strings.TrimSpace(answer) == "" {
			return fmt.Errorf("%s is required", field.Label)
		}
		return nil
	}
}

func optionLabels(options []wizard.OptionView) (labels, values []string) {
	for _, opt := range options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		values = append(values, opt.Value)
	}
	return labels, values
}

func firstChecked(options []wizard.OptionView) int {
	for i, opt := range options {
		if opt.Checked {
			return i
		}
	}
	return 0
}
