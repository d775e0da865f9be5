// Package visibility decides whether a wizard field is shown (and therefore
// validated) for the answers collected so far.
package visibility

// Evaluator determines whether a field should be visible based on a rule
// string and the current form answers.
type Evaluator interface {
	Eval(fieldName, rule string, ctx Context) (bool, error)
}

// Context carries the inputs a rule can reference. Values holds the raw form
// answers keyed by field name; multi-valued fields keep every value.
type Context struct {
	Values map[string][]string
}

// Value returns the first answer recorded for name.
func (c Context) Value(name string) (string, bool) {
	values, ok := c.Values[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(fieldName, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(fieldName, rule string, ctx Context) (bool, error) {
	return fn(fieldName, rule, ctx)
}

// Always is an evaluator that keeps every field visible.
var Always Evaluator = EvaluatorFunc(func(string, string, Context) (bool, error) {
	return true, nil
})
