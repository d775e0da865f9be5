package policy

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	fragmentPolicyOnce sync.Once
	fragmentPolicy     *bluemonday.Policy
)

// Sanitize strips anything outside the element set the assembler emits. It
// is applied before a fragment is embedded into a served page.
func Sanitize(fragment string) string {
	trimmed := strings.TrimSpace(fragment)
	if trimmed == "" {
		return ""
	}
	return fragmentSanitizer().Sanitize(trimmed)
}

func fragmentSanitizer() *bluemonday.Policy {
	fragmentPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("h1", "h2", "p", "strong", "ul", "li", "div")
		p.AllowAttrs("class").OnElements("div")
		fragmentPolicy = p
	})
	return fragmentPolicy
}
