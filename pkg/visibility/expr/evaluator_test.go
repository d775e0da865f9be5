package expr

import (
	"testing"

	"github.com/goliatone/go-policyforge/pkg/visibility"
)

func ctxOf(values map[string][]string) visibility.Context {
	return visibility.Context{Values: values}
}

func TestEvaluatorStringComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("websiteUrl", `type == "website"`, ctxOf(map[string][]string{"type": {"website"}}))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for matching type")
	}

	ok, err = eval.Eval("websiteUrl", `type == 'website'`, ctxOf(map[string][]string{"type": {"app"}}))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for app")
	}

	ok, err = eval.Eval("websiteUrl", `type != website`, ctxOf(map[string][]string{"type": {"app"}}))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected bare literal to compare as string")
	}
}

func TestEvaluatorPresenceAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("x", "companyName", ctxOf(map[string][]string{"companyName": {"Acme"}}))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected present value to be truthy")
	}

	ok, err = eval.Eval("x", "!companyName", ctxOf(map[string][]string{"companyName": {"  "}}))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected blank value to be falsy")
	}
}

func TestEvaluatorMembership(t *testing.T) {
	t.Parallel()

	eval := New()
	values := map[string][]string{"data": {"Name", "Email"}}

	ok, err := eval.Eval("x", `data has "Email"`, ctxOf(values))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected membership match")
	}

	ok, err = eval.Eval("x", `data has "Phone"`, ctxOf(values))
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected membership miss")
	}
}

func TestEvaluatorComposition(t *testing.T) {
	t.Parallel()

	eval := New()
	values := map[string][]string{
		"type":     {"website"},
		"payments": {"no"},
	}

	cases := []struct {
		rule string
		want bool
	}{
		{`type == "website" && payments == "yes"`, false},
		{`type == "website" || payments == "yes"`, true},
		{`!(type == "app") && payments != "yes"`, true},
		{``, true},
	}
	for _, tc := range cases {
		got, err := eval.Eval("x", tc.rule, ctxOf(values))
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestCompileRejectsMalformedRules(t *testing.T) {
	t.Parallel()

	for _, rule := range []string{`type = "x"`, `type == "x`, `(type == "x"`, `a & b`, `== "x"`} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("expected error for %q", rule)
		}
	}
}

func TestRuleEquality(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rule  string
		field string
		value string
		ok    bool
	}{
		{rule: `type == "website"`, field: "type", value: "website", ok: true},
		{rule: ` plan == 'pro' `, field: "plan", value: "pro", ok: true},
		{rule: `type != "app"`},
		{rule: `type == "website" && cookies == "yes"`},
		{rule: `data has "Email"`},
		{rule: ``},
	}
	for _, tc := range cases {
		rule, err := Compile(tc.rule)
		if err != nil {
			t.Fatalf("Compile(%q): %v", tc.rule, err)
		}
		field, value, ok := rule.Equality()
		if ok != tc.ok || field != tc.field || value != tc.value {
			t.Fatalf("Equality(%q) = %q, %q, %v", tc.rule, field, value, ok)
		}
	}
}

func TestRuleStringKeepsSource(t *testing.T) {
	t.Parallel()

	rule, err := Compile("  type == 'website'  ")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if got := rule.String(); got != "type == 'website'" {
		t.Fatalf("String() = %q", got)
	}
}
