// Package template holds the renderer seam shared by the policy assembler,
// the print page and the web views.
package template
