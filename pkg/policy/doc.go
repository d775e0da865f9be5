// Package policy assembles the privacy-policy HTML fragment from the answers
// collected by the wizard.
//
// Assembly is a pure transform: the same FormState and clock always produce
// the same fragment. Every user-supplied string is HTML-escaped as it is
// interpolated; Sanitize adds an allow-list pass for callers embedding the
// fragment in a page.
//
// Section numbers are fixed (1 to 5) whether or not the optional cookie and
// payment sections are present.
package policy
