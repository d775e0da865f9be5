// Package prompt runs the policy wizard in a terminal. A PromptDriver
// abstracts the prompt library so the step loop can be exercised with
// scripted answers.
package prompt
