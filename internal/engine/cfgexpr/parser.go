package cfgexpr

import (
	"strings"

	"go.trai.ch/zerr"

	"go.trai.ch/unify/internal/core/domain"
)

// comparisonKeys are the platform attributes a predicate may compare. Anything
// else is rejected at parse time: an unsupported condition silently evaluating
// to false would build the wrong graph, which is worse than failing loudly.
var comparisonKeys = map[string]bool{
	"target_os":            true,
	"target_arch":          true,
	"target_env":           true,
	"target_family":        true,
	"target_endian":        true,
	"target_pointer_width": true,
	"target_vendor":        true,
	"target_feature":       true,
	"feature":              true,
}

// flagNames are the bare word predicates.
var flagNames = map[string]bool{
	"unix":    true,
	"windows": true,
}

// Parse turns a target expression into an Expr. The input is either
// cfg(<predicate>) or a bare target triple.
func Parse(input string) (Expr, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, zerr.With(domain.ErrParse, "target", input)
	}

	if !strings.HasPrefix(trimmed, "cfg(") {
		// A bare triple. Triples never contain parentheses or spaces.
		if strings.ContainsAny(trimmed, "() ,=") {
			return nil, zerr.With(domain.ErrParse, "target", input)
		}
		return tripleExpr{triple: trimmed}, nil
	}

	p := &parser{input: trimmed, pos: len("cfg(")}
	expr, err := p.parsePred()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eat(')') {
		return nil, p.errorf("expected closing parenthesis")
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, p.errorf("trailing input after predicate")
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(msg string) error {
	return zerr.With(
		zerr.With(zerr.Wrap(domain.ErrParse, msg), "target", p.input),
		"offset", p.pos,
	)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) eat(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) stringLit() (string, error) {
	if !p.eat('"') {
		return "", p.errorf("expected string literal")
	}
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '"' {
		p.pos++
	}
	if p.pos == len(p.input) {
		return "", p.errorf("unterminated string literal")
	}
	lit := p.input[start:p.pos]
	p.pos++
	return lit, nil
}

func (p *parser) parsePred() (Expr, error) {
	p.skipSpace()
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected predicate")
	}
	p.skipSpace()

	switch name {
	case "all", "any":
		subs, err := p.parseList()
		if err != nil {
			return nil, err
		}
		if name == "all" {
			return allExpr{subs: subs}, nil
		}
		return anyExpr{subs: subs}, nil

	case "not":
		if !p.eat('(') {
			return nil, p.errorf("expected ( after not")
		}
		sub, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.eat(')') {
			return nil, p.errorf("expected ) after not predicate")
		}
		return notExpr{sub: sub}, nil
	}

	if p.eat('=') {
		if !comparisonKeys[name] {
			return nil, zerr.With(zerr.With(domain.ErrUnknownCfgKey, "key", name), "target", p.input)
		}
		p.skipSpace()
		value, err := p.stringLit()
		if err != nil {
			return nil, err
		}
		return cmpExpr{key: name, value: value}, nil
	}

	if !flagNames[name] {
		return nil, zerr.With(zerr.With(domain.ErrUnknownCfgKey, "key", name), "target", p.input)
	}
	return flagExpr{name: name}, nil
}

func (p *parser) parseList() ([]Expr, error) {
	if !p.eat('(') {
		return nil, p.errorf("expected ( after combinator")
	}
	var subs []Expr
	p.skipSpace()
	if p.eat(')') {
		return subs, nil
	}
	for {
		sub, err := p.parsePred()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
		p.skipSpace()
		if p.eat(',') {
			p.skipSpace()
			// Trailing comma before the closing parenthesis is allowed.
			if p.eat(')') {
				return subs, nil
			}
			continue
		}
		if p.eat(')') {
			return subs, nil
		}
		return nil, p.errorf("expected , or ) in predicate list")
	}
}
