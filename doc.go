// Package policyforge generates privacy policies from a short questionnaire.
//
// The wizard (pkg/wizard) collects answers step by step, pkg/policy assembles
// the HTML fragment, pkg/countries feeds the country picker, and pkg/export
// derives the plain-text, download and print forms. The functions here are
// shortcuts over those packages.
package policyforge
