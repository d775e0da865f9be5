package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-policyforge/pkg/visibility"
)

// Evaluator is a small, dependency-free rule evaluator for wizard fields.
//
// Supported forms:
//   - presence checks: `websiteUrl` (any non-empty answer)
//   - comparisons: `type == "website"`, `cookies != 'no'`
//   - membership for multi-valued answers: `data has "Email"`
//   - composition: `!a`, `a && b`, `a || (b && c)`
//
// Compiled rules are cached, so one Evaluator can be shared by every field of
// a wizard definition.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]Rule
}

var _ visibility.Evaluator = (*Evaluator)(nil)

func New() *Evaluator {
	return &Evaluator{cache: make(map[string]Rule)}
}

// Eval compiles (or reuses) rule and evaluates it against ctx. An empty rule
// is always visible.
func (e *Evaluator) Eval(_ string, rule string, ctx visibility.Context) (bool, error) {
	compiled, err := e.compile(rule)
	if err != nil {
		return false, err
	}
	return compiled.Match(ctx), nil
}

func (e *Evaluator) compile(rule string) (Rule, error) {
	key := strings.TrimSpace(rule)

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	compiled, err := Compile(key)
	if err != nil {
		return Rule{}, err
	}

	e.mu.Lock()
	if e.cache == nil {
		e.cache = make(map[string]Rule)
	}
	e.cache[key] = compiled
	e.mu.Unlock()
	return compiled, nil
}

// Rule is a parsed visibility expression.
type Rule struct {
	source string
	root   node
}

// Compile parses rule so syntax errors surface when step definitions load
// rather than on first evaluation.
func Compile(rule string) (Rule, error) {
	source := strings.TrimSpace(rule)
	if source == "" {
		return Rule{}, nil
	}
	tokens, err := tokenize(source)
	if err != nil {
		return Rule{}, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return Rule{}, err
	}
	if p.pos < len(p.tokens) {
		return Rule{}, fmt.Errorf("visibility/expr: unexpected token %q", p.tokens[p.pos].raw)
	}
	return Rule{source: source, root: root}, nil
}

// String returns the rule as written.
func (r Rule) String() string { return r.source }

// Equality reports the field and value of a rule of the form
// `field == 'value'`, so simple rules can also be applied client side.
func (r Rule) Equality() (field, value string, ok bool) {
	n, isCompare := r.root.(compareNode)
	if !isCompare || n.negate {
		return "", "", false
	}
	return n.name, n.want, true
}

// Match reports whether ctx satisfies the rule.
func (r Rule) Match(ctx visibility.Context) bool {
	if r.root == nil {
		return true
	}
	return r.root.match(ctx)
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenEq
	tokenNeq
	tokenHas
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDelimiter(ch byte) bool {
	return isSpace(ch) || strings.IndexByte("()!=&|\"'", ch) >= 0
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(input); {
		ch := input[i]
		switch {
		case isSpace(ch):
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			i++
		case ch == '!':
			if strings.HasPrefix(input[i:], "!=") {
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			i++
		case ch == '=':
			if !strings.HasPrefix(input[i:], "==") {
				return nil, errors.New("visibility/expr: unexpected '='; use '=='")
			}
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			i += 2
		case ch == '&':
			if !strings.HasPrefix(input[i:], "&&") {
				return nil, errors.New("visibility/expr: unexpected '&'; use '&&'")
			}
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			i += 2
		case ch == '|':
			if !strings.HasPrefix(input[i:], "||") {
				return nil, errors.New("visibility/expr: unexpected '|'; use '||'")
			}
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			i += 2
		case ch == '"' || ch == '\'':
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, errors.New("visibility/expr: unterminated string literal")
			}
			body := input[i+1 : end]
			if ch == '\'' {
				body = strings.ReplaceAll(body, `"`, `\"`)
				body = strings.ReplaceAll(body, `\'`, `'`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return nil, fmt.Errorf("visibility/expr: invalid string literal: %w", err)
			}
			tokens = append(tokens, token{kind: tokenString, raw: value})
			i = end + 1
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			word := input[start:i]
			if word == "has" {
				tokens = append(tokens, token{kind: tokenHas, raw: word})
				continue
			}
			tokens = append(tokens, token{kind: tokenIdent, raw: word})
		}
	}
	return tokens, nil
}

type node interface {
	match(ctx visibility.Context) bool
}

type orNode struct{ left, right node }

func (n orNode) match(ctx visibility.Context) bool { return n.left.match(ctx) || n.right.match(ctx) }

type andNode struct{ left, right node }

func (n andNode) match(ctx visibility.Context) bool { return n.left.match(ctx) && n.right.match(ctx) }

type notNode struct{ inner node }

func (n notNode) match(ctx visibility.Context) bool { return !n.inner.match(ctx) }

type presentNode struct{ name string }

func (n presentNode) match(ctx visibility.Context) bool {
	for _, value := range ctx.Values[n.name] {
		if strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

type compareNode struct {
	name   string
	negate bool
	want   string
}

func (n compareNode) match(ctx visibility.Context) bool {
	got, _ := ctx.Value(n.name)
	return (got == n.want) != n.negate
}

type hasNode struct {
	name string
	want string
}

func (n hasNode) match(ctx visibility.Context) bool {
	for _, value := range ctx.Values[n.name] {
		if value == n.want {
			return true
		}
	}
	return false
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) accept(kind tokenKind) bool {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(tokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(tokenAnd) {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.accept(tokenNot) {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.accept(tokenLParen) {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokenRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	if p.pos >= len(p.tokens) {
		return nil, errors.New("visibility/expr: empty expression")
	}
	tok := p.tokens[p.pos]
	if tok.kind != tokenIdent {
		return nil, fmt.Errorf("visibility/expr: expected field name, got %q", tok.raw)
	}
	p.pos++

	switch {
	case p.accept(tokenEq):
		want, err := p.literal()
		if err != nil {
			return nil, err
		}
		return compareNode{name: tok.raw, want: want}, nil
	case p.accept(tokenNeq):
		want, err := p.literal()
		if err != nil {
			return nil, err
		}
		return compareNode{name: tok.raw, want: want, negate: true}, nil
	case p.accept(tokenHas):
		want, err := p.literal()
		if err != nil {
			return nil, err
		}
		return hasNode{name: tok.raw, want: want}, nil
	}
	return presentNode{name: tok.raw}, nil
}

// literal accepts quoted strings and, to stay forgiving, bare words.
func (p *parser) literal() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", errors.New("visibility/expr: missing literal")
	}
	tok := p.tokens[p.pos]
	if tok.kind != tokenString && tok.kind != tokenIdent {
		return "", fmt.Errorf("visibility/expr: expected literal, got %q", tok.raw)
	}
	p.pos++
	return tok.raw, nil
}
