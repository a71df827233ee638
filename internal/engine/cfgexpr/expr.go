// Package cfgexpr parses and evaluates target-conditional expressions of the
// form cfg(...) or a bare target triple. Parsing happens once at ingestion;
// evaluation is a pure function over a TargetPlatform.
package cfgexpr

import (
	"strings"

	"go.trai.ch/unify/internal/core/domain"
)

// Expr is a parsed target predicate. It implements domain.TargetPredicate.
type Expr interface {
	domain.TargetPredicate

	// String renders the predicate in canonical cfg syntax.
	String() string
}

// tripleExpr matches one exact target triple.
type tripleExpr struct {
	triple string
}

func (e tripleExpr) Matches(p domain.TargetPlatform, _ func(string) bool) bool {
	return p.Triple == e.triple
}

func (e tripleExpr) String() string { return e.triple }

// allExpr is the all(...) combinator: true when every sub-predicate matches.
// The empty list is true, matching cfg(all()).
type allExpr struct {
	subs []Expr
}

func (e allExpr) Matches(p domain.TargetPlatform, hasFeature func(string) bool) bool {
	for _, sub := range e.subs {
		if !sub.Matches(p, hasFeature) {
			return false
		}
	}
	return true
}

func (e allExpr) String() string { return combinatorString("all", e.subs) }

// anyExpr is the any(...) combinator: true when at least one sub-predicate
// matches. The empty list is false.
type anyExpr struct {
	subs []Expr
}

func (e anyExpr) Matches(p domain.TargetPlatform, hasFeature func(string) bool) bool {
	for _, sub := range e.subs {
		if sub.Matches(p, hasFeature) {
			return true
		}
	}
	return false
}

func (e anyExpr) String() string { return combinatorString("any", e.subs) }

// notExpr negates its sub-predicate.
type notExpr struct {
	sub Expr
}

func (e notExpr) Matches(p domain.TargetPlatform, hasFeature func(string) bool) bool {
	return !e.sub.Matches(p, hasFeature)
}

func (e notExpr) String() string { return "not(" + e.sub.String() + ")" }

// cmpExpr compares one platform attribute against a literal.
type cmpExpr struct {
	key   string
	value string
}

func (e cmpExpr) Matches(p domain.TargetPlatform, hasFeature func(string) bool) bool {
	switch e.key {
	case "target_os":
		return p.OS == e.value
	case "target_arch":
		return p.Arch == e.value
	case "target_env":
		return p.Env == e.value
	case "target_family":
		return p.Family == e.value
	case "target_endian":
		return p.Endian == e.value
	case "target_pointer_width":
		return p.PointerWidth == e.value
	case "target_vendor":
		return p.Vendor == e.value
	case "target_feature":
		// CPU feature sets are not part of the platform descriptor; a unit
		// gated on one is never pulled in.
		return false
	case "feature":
		return hasFeature != nil && hasFeature(e.value)
	}
	return false
}

func (e cmpExpr) String() string {
	return e.key + ` = "` + e.value + `"`
}

// flagExpr is a bare word predicate: unix or windows, matching the family.
type flagExpr struct {
	name string
}

func (e flagExpr) Matches(p domain.TargetPlatform, _ func(string) bool) bool {
	return p.Family == e.name
}

func (e flagExpr) String() string { return e.name }

func combinatorString(name string, subs []Expr) string {
	parts := make([]string, len(subs))
	for i, sub := range subs {
		parts[i] = sub.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
