package wizard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-policyforge/internal/logging"
	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/visibility"
	"github.com/goliatone/go-policyforge/pkg/visibility/expr"
)

var (
	// ErrBusy is returned when Generate is called while a generation is
	// still pending.
	ErrBusy = errors.New("wizard: generation already in progress")
	// ErrIncomplete is returned when Generate finds a required answer
	// missing.
	ErrIncomplete = errors.New("wizard: required answers missing")
	// ErrNotFinalStep is returned when Generate is called before the last
	// step is active.
	ErrNotFinalStep = errors.New("wizard: generate is only available on the last step")
)

// DefaultGenerationDelay is the pause shown with a loading indicator before
// the document appears.
const DefaultGenerationDelay = 1500 * time.Millisecond

// Assembler turns answers into a policy fragment.
type Assembler interface {
	Assemble(state policy.FormState) (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithCountries attaches the reference list used to check country answers.
func WithCountries(source countries.Source) Option {
	return func(c *Controller) { c.countries = source }
}

// WithAssembler overrides the policy assembler.
func WithAssembler(assembler Assembler) Option {
	return func(c *Controller) {
		if assembler != nil {
			c.assembler = assembler
		}
	}
}

// WithGenerationDelay sets the simulated latency before assembly. Zero
// disables it.
func WithGenerationDelay(delay time.Duration) Option {
	return func(c *Controller) {
		if delay >= 0 {
			c.delay = delay
		}
	}
}

// WithEvaluator overrides the visibility rule evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(c *Controller) {
		if evaluator != nil {
			c.evaluator = evaluator
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidationHook is called with the step id and failing field names
// whenever validation blocks navigation.
func WithValidationHook(fn func(stepID string, fields []string)) Option {
	return func(c *Controller) { c.onInvalid = fn }
}

// WithGenerateHook is called after every successful generation.
func WithGenerateHook(fn func(state policy.FormState)) Option {
	return func(c *Controller) { c.onGenerate = fn }
}

// Controller owns the wizard state: the active step, the answers collected so
// far, and which fields are flagged as invalid. It is safe for concurrent use;
// Generate releases the lock while it waits so View can report the busy
// state.
type Controller struct {
	mu sync.Mutex

	def        Definition
	index      int
	values     url.Values
	invalid    map[string]bool
	busy       bool
	generated  int
	lastResult string

	countries  countries.Source
	assembler  Assembler
	evaluator  visibility.Evaluator
	delay      time.Duration
	logger     logrus.FieldLogger
	onInvalid  func(stepID string, fields []string)
	onGenerate func(state policy.FormState)
}

// New builds a controller positioned on the first step, with field defaults
// applied.
func New(def Definition, options ...Option) (*Controller, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}

	c := &Controller{
		def:       def,
		values:    url.Values{},
		invalid:   map[string]bool{},
		evaluator: expr.New(),
		delay:     DefaultGenerationDelay,
		logger:    logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.assembler == nil {
		assembler, err := policy.NewAssembler()
		if err != nil {
			return nil, fmt.Errorf("wizard: %w", err)
		}
		c.assembler = assembler
	}

	for _, step := range def.Steps {
		for _, field := range step.Fields {
			if field.Default != "" {
				c.values.Set(field.Name, field.Default)
			}
		}
	}
	return c, nil
}

// NewDefault builds a controller for the built-in privacy policy wizard.
func NewDefault(options ...Option) (*Controller, error) {
	def, err := DefaultDefinition()
	if err != nil {
		return nil, err
	}
	return New(def, options...)
}

// Definition returns the step definitions the controller runs.
func (c *Controller) Definition() Definition { return c.def }

// StepIndex returns the active step, in [0, StepCount-1].
func (c *Controller) StepIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// StepCount returns the number of step panels.
func (c *Controller) StepCount() int { return len(c.def.Steps) }

// IsLastStep reports whether the active step is the final one, where
// "generate" replaces "next".
func (c *Controller) IsLastStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isLast()
}

func (c *Controller) isLast() bool { return c.index == len(c.def.Steps)-1 }

// Set replaces the answers recorded for name.
func (c *Controller) Set(name string, values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(name, values)
}

func (c *Controller) set(name string, values []string) {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		c.values.Del(name)
		return
	}
	c.values[name] = kept
}

// Submit records the posted answers for every field of the active step. Fields
// absent from posted are cleared, which is how an unticked checkbox group
// arrives from an HTML form.
func (c *Controller) Submit(posted url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, field := range c.def.Steps[c.index].Fields {
		c.set(field.Name, posted[field.Name])
	}
}

// Value returns the first answer for name.
func (c *Controller) Value(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Get(name)
}

// Values returns a copy of every answer collected so far.
func (c *Controller) Values() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneValues(c.values)
}

// FormState returns the typed answers.
func (c *Controller) FormState() policy.FormState {
	return policy.FromValues(c.Values())
}

// GoNext validates the active step and, when it passes, advances one step.
// The index never moves past the last step. It reports whether the active
// step was valid.
func (c *Controller) GoNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validateStep(c.index) {
		return false
	}
	if !c.isLast() {
		c.index++
	}
	return true
}

// GoPrev moves back one step without validating. It is a no-op on the first
// step.
func (c *Controller) GoPrev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index > 0 {
		c.index--
	}
}

// ValidateActiveStep checks every visible required field of the active step
// (and country fields, which are always required), flagging failures and
// clearing flags on fields that now pass.
func (c *Controller) ValidateActiveStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateStep(c.index)
}

func (c *Controller) validateStep(index int) bool {
	step := c.def.Steps[index]
	var failing []string
	for _, field := range step.Fields {
		if !c.visible(field) {
			delete(c.invalid, field.Name)
			continue
		}
		if c.fieldValid(field) {
			delete(c.invalid, field.Name)
			continue
		}
		c.invalid[field.Name] = true
		failing = append(failing, field.Name)
	}
	if len(failing) == 0 {
		return true
	}
	c.logger.WithFields(logrus.Fields{
		"step":   step.ID,
		"fields": failing,
	}).Debug("step validation failed")
	if c.onInvalid != nil {
		c.onInvalid(step.ID, failing)
	}
	return false
}

func (c *Controller) fieldValid(field Field) bool {
	value := strings.TrimSpace(c.values.Get(field.Name))
	if field.Kind == KindCountry {
		if value == "" {
			return false
		}
		if c.countries == nil {
			return true
		}
		entries := c.countries.Entries()
		if len(entries) == 0 {
			return true
		}
		_, ok := countries.Find(entries, value)
		return ok
	}
	if !field.Required {
		return true
	}
	return value != ""
}

func (c *Controller) visible(field Field) bool {
	if field.VisibleWhen == "" {
		return true
	}
	ok, err := c.evaluator.Eval(field.Name, field.VisibleWhen, visibility.Context{Values: c.values})
	if err != nil {
		c.logger.WithError(err).WithField("field", field.Name).Warn("visibility rule failed")
		return true
	}
	return ok
}

// RewindToInvalid steps back, one step at a time, until the active step
// holds a flagged field. Nothing moves when no earlier step is flagged. It
// returns the resulting index.
func (c *Controller) RewindToInvalid() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := -1
	for i := c.index; i >= 0; i-- {
		if c.stepFlagged(i) {
			target = i
			break
		}
	}
	for target >= 0 && c.index > target {
		c.index--
	}
	return c.index
}

func (c *Controller) stepFlagged(index int) bool {
	for _, field := range c.def.Steps[index].Fields {
		if c.invalid[field.Name] {
			return true
		}
	}
	return false
}

// Invalid reports whether name is currently flagged.
func (c *Controller) Invalid(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalid[name]
}

// Busy reports whether a generation is pending.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Generated returns how many documents this controller has produced.
func (c *Controller) Generated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generated
}

// Result returns the last generated fragment.
func (c *Controller) Result() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult, c.generated > 0
}

// Generate is the terminal action of the last step. It validates every step,
// marks the controller busy for the simulated delay, assembles the document,
// and returns it. A call made while another is pending fails with ErrBusy
// instead of queueing.
func (c *Controller) Generate(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("wizard: context is required")
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return "", ErrBusy
	}
	if !c.isLast() {
		c.mu.Unlock()
		return "", ErrNotFinalStep
	}
	valid := true
	for i := range c.def.Steps {
		if !c.validateStep(i) {
			valid = false
		}
	}
	if !valid {
		c.mu.Unlock()
		return "", ErrIncomplete
	}
	c.busy = true
	state := policy.FromValues(c.values)
	c.mu.Unlock()

	doc, err := c.runGeneration(ctx, state)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if err != nil {
		return "", err
	}
	c.generated++
	c.lastResult = doc
	if c.onGenerate != nil {
		c.onGenerate(state)
	}
	c.logger.WithField("company", state.CompanyName).Info("privacy policy generated")
	return doc, nil
}

func (c *Controller) runGeneration(ctx context.Context, state policy.FormState) (string, error) {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	doc, err := c.assembler.Assemble(state)
	if err != nil {
		return "", fmt.Errorf("wizard: %w", err)
	}
	return doc, nil
}

func cloneValues(src url.Values) url.Values {
	out := make(url.Values, len(src))
	for k, v := range src {
		out[k] = append([]string(nil), v...)
	}
	return out
}
