package policy

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-policyforge/pkg/render/template"
	"github.com/goliatone/go-policyforge/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

const (
	policyTemplate = "policy"
	// DateLayout matches the month/day/year style of the original generator.
	DateLayout   = "1/2/2006"
	DefaultBrand = "PolicyForge"
)

// TemplatesFS exposes the embedded policy template so callers can copy and
// customise it, then load the copy with gotemplate.WithFS and pass the engine
// through WithRenderer.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return templatesFS
	}
	return sub
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock overrides the time source used for the "Last Updated" line.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithBrand sets the name shown in the trailing attribution line.
func WithBrand(brand string) Option {
	return func(a *Assembler) {
		if trimmed := strings.TrimSpace(brand); trimmed != "" {
			a.brand = trimmed
		}
	}
}

// WithRenderer swaps the template engine. The renderer must provide a
// "policy" template and must autoescape interpolated values.
func WithRenderer(renderer template.TemplateRenderer) Option {
	return func(a *Assembler) {
		if renderer != nil {
			a.renderer = renderer
		}
	}
}

// Assembler renders FormState values into policy fragments.
type Assembler struct {
	renderer template.TemplateRenderer
	now      func() time.Time
	brand    string
}

// NewAssembler builds an assembler backed by the embedded template.
func NewAssembler(options ...Option) (*Assembler, error) {
	a := &Assembler{
		now:   time.Now,
		brand: DefaultBrand,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	if a.renderer == nil {
		engine, err := defaultEngine()
		if err != nil {
			return nil, err
		}
		a.renderer = engine
	}
	return a, nil
}

var (
	engineOnce sync.Once
	engine     *gotemplate.Engine
	engineErr  error
)

func defaultEngine() (*gotemplate.Engine, error) {
	engineOnce.Do(func() {
		engine, engineErr = gotemplate.New(
			gotemplate.WithName("policy"),
			gotemplate.WithFS(TemplatesFS()),
		)
	})
	if engineErr != nil {
		return nil, fmt.Errorf("policy: template engine: %w", engineErr)
	}
	return engine, nil
}

// Assemble renders the fragment for state.
func (a *Assembler) Assemble(state FormState) (string, error) {
	out, err := a.renderer.RenderTemplate(policyTemplate, a.viewData(state))
	if err != nil {
		return "", fmt.Errorf("policy: assemble: %w", err)
	}
	return out, nil
}

func (a *Assembler) viewData(state FormState) map[string]any {
	return map[string]any{
		"date":          a.now().Format(DateLayout),
		"company":       state.CompanyName,
		"type_label":    state.Type.Label(),
		"target":        state.Target(),
		"personal_data": state.PersonalData,
		"cookies":       state.Cookies,
		"third_parties": state.ThirdParties,
		"payments":      state.Payments,
		"email":         state.Email,
		"country":       state.Country,
		"brand":         a.brand,
	}
}

// Assemble renders state with a default assembler configured by options.
func Assemble(state FormState, options ...Option) (string, error) {
	a, err := NewAssembler(options...)
	if err != nil {
		return "", err
	}
	return a.Assemble(state)
}
