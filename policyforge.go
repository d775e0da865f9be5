package policyforge

import (
	"context"
	"net/url"

	"github.com/goliatone/go-policyforge/pkg/export"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/wizard"
)

// FormState aliases policy.FormState, the typed wizard answers.
type FormState = policy.FormState

// Wizard aliases the step controller so callers can hold one without importing
// pkg/wizard.
type Wizard = wizard.Controller

// NewWizard returns a controller for the built-in privacy policy wizard.
func NewWizard(options ...wizard.Option) (*Wizard, error) {
	return wizard.NewDefault(options...)
}

// GenerateHTML assembles the policy fragment straight from form values, the
// simplest entry point for callers that collect answers themselves. No
// wizard validation runs.
func GenerateHTML(values url.Values, options ...policy.Option) (string, error) {
	return policy.Assemble(policy.FromValues(values), options...)
}

// GenerateText assembles the policy and returns its plain-text rendering.
func GenerateText(values url.Values, options ...policy.Option) (string, error) {
	doc, err := GenerateHTML(values, options...)
	if err != nil {
		return "", err
	}
	return export.PlainText(doc)
}

// Complete validates values against the built-in wizard, step by step, and
// generates the policy without the simulated delay. It fails with
// wizard.ErrIncomplete when a required answer is missing.
func Complete(ctx context.Context, values url.Values, options ...wizard.Option) (string, error) {
	opts := append([]wizard.Option{wizard.WithGenerationDelay(0)}, options...)
	ctrl, err := wizard.NewDefault(opts...)
	if err != nil {
		return "", err
	}
	for name, vals := range values {
		ctrl.Set(name, vals...)
	}
	for !ctrl.IsLastStep() {
		if !ctrl.GoNext() {
			return "", wizard.ErrIncomplete
		}
	}
	return ctrl.Generate(ctx)
}
