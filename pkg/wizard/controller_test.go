package wizard

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-policyforge/pkg/countries"
	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/visibility"
)

type stubAssembler struct {
	mu    sync.Mutex
	calls int
	state policy.FormState
	err   error
}

func (s *stubAssembler) Assemble(state policy.FormState) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.state = state
	if s.err != nil {
		return "", s.err
	}
	return "<h1>Privacy Policy for " + state.CompanyName + "</h1>", nil
}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	base := []Option{
		WithGenerationDelay(0),
		WithCountries(countries.NewStaticCatalog([]countries.Entry{
			{Name: "France", Emoji: "🇫🇷"},
			{Name: "Germany", Emoji: "🇩🇪"},
		})),
	}
	c, err := NewDefault(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func fillBasics(c *Controller) {
	c.Set("companyName", "Acme")
	c.Set("websiteUrl", "acme.com")
	c.Set("email", "a@acme.com")
	c.Set("country", "France")
}

func advanceToLast(t *testing.T, c *Controller) {
	t.Helper()
	for !c.IsLastStep() {
		if !c.GoNext() {
			t.Fatalf("step %d did not validate", c.StepIndex())
		}
	}
}

func TestDefaultDefinition_StepOrder(t *testing.T) {
	def, err := DefaultDefinition()
	if err != nil {
		t.Fatalf("default definition: %v", err)
	}
	var ids []string
	for _, step := range def.Steps {
		ids = append(ids, step.ID)
	}
	if diff := cmp.Diff([]string{"basics", "data", "tracking", "payments"}, ids); diff != "" {
		t.Fatalf("step ids mismatch (-want +got):\n%s", diff)
	}
	if field, ok := def.Field("country"); !ok || field.Kind != KindCountry {
		t.Fatalf("expected country field of kind country, got %+v", field)
	}
}

func TestNew_SeedsDefaults(t *testing.T) {
	c := newController(t)
	if got := c.Value("type"); got != "website" {
		t.Fatalf("type default = %q", got)
	}
	if got := c.Value("cookies"); got != "no" {
		t.Fatalf("cookies default = %q", got)
	}
	if c.StepIndex() != 0 {
		t.Fatalf("expected first step, got %d", c.StepIndex())
	}
}

func TestGoNext_BlocksOnMissingRequiredField(t *testing.T) {
	var hookStep string
	var hookFields []string
	c := newController(t, WithValidationHook(func(step string, fields []string) {
		hookStep, hookFields = step, fields
	}))
	fillBasics(c)
	c.Set("companyName")

	if c.GoNext() {
		t.Fatal("expected navigation to be blocked")
	}
	if c.StepIndex() != 0 {
		t.Fatalf("index moved to %d", c.StepIndex())
	}
	if !c.Invalid("companyName") {
		t.Fatal("expected companyName to be flagged")
	}
	if c.Invalid("email") {
		t.Fatal("email should not be flagged")
	}
	if hookStep != "basics" || !cmp.Equal(hookFields, []string{"companyName"}) {
		t.Fatalf("hook got %q %v", hookStep, hookFields)
	}

	c.Set("companyName", "Acme")
	if !c.GoNext() {
		t.Fatal("expected navigation after fixing the field")
	}
	if c.Invalid("companyName") {
		t.Fatal("flag should clear once the field is valid")
	}
	if c.StepIndex() != 1 {
		t.Fatalf("expected step 1, got %d", c.StepIndex())
	}
}

func TestGoNext_WhitespaceIsEmpty(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	c.Set("email", "   ")
	if c.GoNext() {
		t.Fatal("whitespace-only answer should fail validation")
	}
}

func TestGoNext_CountryMustBeSelected(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	c.Set("country")
	if c.GoNext() {
		t.Fatal("expected missing country to block")
	}
	if !c.Invalid("country") {
		t.Fatal("expected country flag")
	}

	c.Set("country", "Atlantis")
	if c.GoNext() {
		t.Fatal("expected unknown country to block")
	}

	c.Set("country", "Germany")
	if !c.GoNext() {
		t.Fatal("expected known country to pass")
	}
}

func TestGoNext_CountryAcceptedWhenListUnavailable(t *testing.T) {
	c := newController(t, WithCountries(countries.NewStaticCatalog(nil)))
	fillBasics(c)
	c.Set("country", "Atlantis")
	if !c.GoNext() {
		t.Fatal("any non-empty country should pass with an empty reference list")
	}
}

func TestGoNext_HiddenFieldsAreNotValidated(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	c.Set("websiteUrl")
	if c.GoNext() {
		t.Fatal("website URL should be required for websites")
	}

	c.Set("type", "app")
	if !c.GoNext() {
		t.Fatal("website URL should be skipped for apps")
	}
	if c.Invalid("websiteUrl") {
		t.Fatal("hidden field should not stay flagged")
	}
}

func TestGoNext_CustomEvaluator(t *testing.T) {
	c := newController(t, WithEvaluator(visibility.Always))
	fillBasics(c)
	c.Set("type", "app")
	c.Set("websiteUrl")
	if c.GoNext() {
		t.Fatal("an always-visible URL field should stay required for apps")
	}
	if !c.Invalid("websiteUrl") {
		t.Fatal("website URL should be flagged")
	}

	var rules []string
	failing := visibility.EvaluatorFunc(func(field, rule string, _ visibility.Context) (bool, error) {
		rules = append(rules, field+": "+rule)
		return false, errors.New("broken rule")
	})
	c = newController(t, WithEvaluator(failing))
	fillBasics(c)
	c.Set("type", "app")
	c.Set("websiteUrl")
	if c.GoNext() {
		t.Fatal("a failing rule should leave the field visible and required")
	}
	if len(rules) == 0 || rules[0] != `websiteUrl: type == "website"` {
		t.Fatalf("unexpected evaluated rules %v", rules)
	}
}

func TestGoNext_StopsAtLastStep(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	advanceToLast(t, c)
	last := c.StepCount() - 1
	if !c.GoNext() {
		t.Fatal("last step should still validate")
	}
	if c.StepIndex() != last {
		t.Fatalf("index moved past last step: %d", c.StepIndex())
	}
}

func TestGoPrev_NoValidationAndLowerBound(t *testing.T) {
	c := newController(t)
	c.GoPrev()
	if c.StepIndex() != 0 {
		t.Fatalf("expected index 0, got %d", c.StepIndex())
	}

	fillBasics(c)
	if !c.GoNext() {
		t.Fatal("expected to advance")
	}
	c.Set("companyName")
	c.GoPrev()
	if c.StepIndex() != 0 {
		t.Fatalf("expected back on step 0, got %d", c.StepIndex())
	}
	if c.Invalid("companyName") {
		t.Fatal("going back must not validate")
	}
}

func TestSubmit_ReplacesActiveStepAnswers(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	c.GoNext()

	c.Submit(url.Values{"data": {"Email", "Name"}, "companyName": {"Ignored"}})
	if diff := cmp.Diff([]string{"Email", "Name"}, c.Values()["data"]); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if got := c.Value("companyName"); got != "Acme" {
		t.Fatalf("fields of other steps must not change, got %q", got)
	}

	c.Submit(url.Values{})
	if _, ok := c.Values()["data"]; ok {
		t.Fatal("unticked checkboxes should clear the answer")
	}
}

func TestView_ProgressAndControls(t *testing.T) {
	c := newController(t)
	fillBasics(c)

	want := []float64{25, 50, 75, 100}
	for i, progress := range want {
		view := c.View()
		if view.StepIndex != i {
			t.Fatalf("step %d: index %d", i, view.StepIndex)
		}
		if view.Progress != progress {
			t.Fatalf("step %d: progress %v want %v", i, view.Progress, progress)
		}
		if view.ShowPrev != (i > 0) {
			t.Fatalf("step %d: showPrev %v", i, view.ShowPrev)
		}
		if view.ShowNext == (i == len(want)-1) || view.ShowGenerate != (i == len(want)-1) {
			t.Fatalf("step %d: next=%v generate=%v", i, view.ShowNext, view.ShowGenerate)
		}
		c.GoNext()
	}
}

func TestView_FieldState(t *testing.T) {
	c := newController(t)
	c.Set("type", "app")
	view := c.View()

	byName := map[string]FieldView{}
	for _, f := range view.Fields {
		byName[f.Name] = f
	}
	if !byName["websiteUrl"].Hidden {
		t.Fatal("websiteUrl should be hidden for apps")
	}
	if !byName["country"].Required {
		t.Fatal("country is always required")
	}
	var checked []string
	for _, opt := range byName["type"].Options {
		if opt.Checked {
			checked = append(checked, opt.Value)
		}
	}
	if !cmp.Equal(checked, []string{"app"}) {
		t.Fatalf("checked options = %v", checked)
	}
}

func TestGenerate_OnlyOnLastStep(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	if _, err := c.Generate(context.Background()); !errors.Is(err, ErrNotFinalStep) {
		t.Fatalf("expected ErrNotFinalStep, got %v", err)
	}
}

func TestGenerate_AssemblesAnswers(t *testing.T) {
	stub := &stubAssembler{}
	var generated []policy.FormState
	c := newController(t, WithAssembler(stub), WithGenerateHook(func(s policy.FormState) {
		generated = append(generated, s)
	}))
	fillBasics(c)
	advanceToLast(t, c)
	c.Set("payments", "yes")

	doc, err := c.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(doc, "Acme") {
		t.Fatalf("unexpected document %q", doc)
	}
	if stub.calls != 1 || len(generated) != 1 {
		t.Fatalf("assembler calls=%d hook calls=%d", stub.calls, len(generated))
	}
	if !stub.state.Payments || stub.state.Cookies || stub.state.Country != "France" {
		t.Fatalf("unexpected state %+v", stub.state)
	}
	if result, ok := c.Result(); !ok || result != doc {
		t.Fatal("result should be retained")
	}
	if c.Busy() {
		t.Fatal("busy flag should clear")
	}
}

func TestGenerate_RevalidatesEarlierSteps(t *testing.T) {
	stub := &stubAssembler{}
	c := newController(t, WithAssembler(stub))
	fillBasics(c)
	advanceToLast(t, c)
	c.Set("email")

	if _, err := c.Generate(context.Background()); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatal("assembler must not run with missing answers")
	}
	if !c.Invalid("email") {
		t.Fatal("expected email flag")
	}
}

func TestGenerate_RejectsReentrantCalls(t *testing.T) {
	stub := &stubAssembler{}
	c := newController(t, WithAssembler(stub), WithGenerationDelay(200*time.Millisecond))
	fillBasics(c)
	advanceToLast(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(context.Background())
		done <- err
	}()

	deadline := time.Now().Add(time.Second)
	for !c.Busy() {
		if time.Now().After(deadline) {
			t.Fatal("generation never became busy")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !c.View().Busy {
		t.Fatal("view should report busy")
	}
	if _, err := c.Generate(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if stub.calls != 1 || c.Generated() != 1 {
		t.Fatalf("assembler ran %d times, generated=%d", stub.calls, c.Generated())
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	stub := &stubAssembler{}
	c := newController(t, WithAssembler(stub), WithGenerationDelay(time.Hour))
	fillBasics(c)
	advanceToLast(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Generate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.Busy() || stub.calls != 0 {
		t.Fatal("cancelled generation should leave no trace")
	}
}

func TestGenerate_AssemblerError(t *testing.T) {
	boom := errors.New("boom")
	c := newController(t, WithAssembler(&stubAssembler{err: boom}))
	fillBasics(c)
	advanceToLast(t, c)
	if _, err := c.Generate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped assembler error, got %v", err)
	}
	if c.Generated() != 0 {
		t.Fatal("failed generation should not count")
	}
}

func TestGenerate_DefaultAssembler(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	advanceToLast(t, c)
	doc, err := c.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, want := range []string{"<strong>Acme</strong>", "acme.com", "a@acme.com", "France"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("document missing %q:\n%s", want, doc)
		}
	}
}

func TestParseDefinition_Errors(t *testing.T) {
	cases := map[string]string{
		"no steps":       "steps: []",
		"empty id":       "steps:\n  - title: x\n",
		"duplicate id":   "steps:\n  - id: a\n  - id: a\n",
		"unknown kind":   "steps:\n  - id: a\n    fields:\n      - name: f\n        kind: slider\n",
		"no options":     "steps:\n  - id: a\n    fields:\n      - name: f\n        kind: radio\n",
		"bad rule":       "steps:\n  - id: a\n    fields:\n      - name: f\n        kind: text\n        visibleWhen: 'a =='\n",
		"dup field":      "steps:\n  - id: a\n    fields:\n      - {name: f, kind: text}\n  - id: b\n    fields:\n      - {name: f, kind: text}\n",
		"invalid yaml":   "steps: [",
		"nameless field": "steps:\n  - id: a\n    fields:\n      - kind: text\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseDefinition([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFS_CustomDefinition(t *testing.T) {
	fsys := fstest.MapFS{
		"wizard.yaml": {Data: []byte("steps:\n  - id: only\n    title: Only\n    fields:\n      - {name: companyName, kind: text, required: true}\n")},
	}
	def, err := LoadFS(fsys, "wizard.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c, err := New(def, WithGenerationDelay(0))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !c.IsLastStep() {
		t.Fatal("single step wizard starts on its last step")
	}
	if view := c.View(); view.Progress != 100 || view.ShowPrev {
		t.Fatalf("unexpected view %+v", view)
	}

	if _, err := LoadFS(fsys, "missing.yaml"); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestRewindToInvalid(t *testing.T) {
	c := newController(t)
	fillBasics(c)
	advanceToLast(t, c)
	c.Set("email")

	if _, err := c.Generate(context.Background()); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if got := c.RewindToInvalid(); got != 0 {
		t.Fatalf("expected to land on the basics step, got %d", got)
	}
	if !c.View().Fields[3].Invalid {
		t.Fatal("email should be flagged on the rewound step")
	}

	c.Set("email", "a@acme.com")
	c.ValidateActiveStep()
	advanceToLast(t, c)
	last := c.StepIndex()
	if got := c.RewindToInvalid(); got != last {
		t.Fatalf("with no flags the wizard should stay on step %d, got %d", last, got)
	}
}
