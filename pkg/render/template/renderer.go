package template

import (
	"io"
)

// TemplateRenderer is what the assembler and the web views need from an
// engine. Implementations must HTML-escape interpolated values unless a
// template explicitly marks them safe.
type TemplateRenderer interface {
	// RenderTemplate executes a named template and mirrors the result to
	// every non-nil writer in out.
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
