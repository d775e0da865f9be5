package export

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/goliatone/go-policyforge/pkg/policy"
	"github.com/goliatone/go-policyforge/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var templatesFS embed.FS

const defaultPrintTitle = "Privacy Policy"

var (
	printOnce   sync.Once
	printEngine *gotemplate.Engine
	printErr    error
)

func printTemplates() (*gotemplate.Engine, error) {
	printOnce.Do(func() {
		sub, err := fs.Sub(templatesFS, "templates")
		if err != nil {
			printErr = err
			return
		}
		printEngine, printErr = gotemplate.New(
			gotemplate.WithName("export"),
			gotemplate.WithFS(sub),
		)
	})
	if printErr != nil {
		return nil, fmt.Errorf("export: print template: %w", printErr)
	}
	return printEngine, nil
}

// PrintPage wraps fragment in a standalone document that opens the print
// dialog once loaded. The fragment is sanitized before it is embedded.
func PrintPage(fragment, title string) (string, error) {
	engine, err := printTemplates()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(title) == "" {
		title = defaultPrintTitle
	}
	out, err := engine.RenderTemplate("print", map[string]any{
		"title": title,
		"body":  policy.Sanitize(fragment),
	})
	if err != nil {
		return "", fmt.Errorf("export: render print page: %w", err)
	}
	return out, nil
}
