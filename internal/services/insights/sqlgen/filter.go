package sqlgen

import (
	"math"
	"sort"

	"insights/internal/services/insights/domain"
)

// operator renders one predicate from a column and its rendered literals
type operator struct {
	arity  int
	like   func(string) string
	render func(col string, lits []string) string
}

func cmp(sym string) operator {
	return operator{arity: 1, render: func(col string, l []string) string { return col + " " + sym + " " + l[0] }}
}

func like(not bool, pattern func(string) string) operator {
	kw := " LIKE "
	if not {
		kw = " NOT LIKE "
	}
	return operator{arity: 1, like: pattern, render: func(col string, l []string) string { return col + kw + l[0] }}
}

var between = operator{arity: 2, render: func(col string, l []string) string {
	return "(" + col + " BETWEEN " + l[0] + " AND " + l[1] + ")"
}}

// operators is the allow-list, a pair missing here is a compile error
var operators = map[domain.FilterType]map[string]operator{
	domain.FilterNumber: {
		"equals":         cmp("="),
		"notEquals":      cmp("<>"),
		"greater":        cmp(">"),
		"greaterOrEqual": cmp(">="),
		"less":           cmp("<"),
		"lessOrEqual":    cmp("<="),
		"between":        between,
	},
	domain.FilterString: {
		"equals":      cmp("="),
		"notEquals":   cmp("<>"),
		"contains":    like(false, func(s string) string { return "%" + EscapeLike(s) + "%" }),
		"notContains": like(true, func(s string) string { return "%" + EscapeLike(s) + "%" }),
		"startsWith":  like(false, func(s string) string { return EscapeLike(s) + "%" }),
		"endsWith":    like(false, func(s string) string { return "%" + EscapeLike(s) }),
	},
	domain.FilterDate: {
		"before":  cmp("<"),
		"after":   cmp(">"),
		"between": between,
	},
}

// Operators lists the allowed operators for t, sorted
func Operators(t domain.FilterType) []string {
	out := make([]string, 0, len(operators[t]))
	for name := range operators[t] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Supported reports whether op is allowed for t
func Supported(t domain.FilterType, op string) bool {
	_, ok := operators[t][op]
	return ok
}

// Compile renders one typed predicate against column for dialect d
func Compile(d Dialect, a *Args, t domain.FilterType, op string, v *domain.FilterValue, column string) (string, error) {
	rule, ok := operators[t][op]
	if !ok {
		return "", domain.UnsupportedOperatorf("operator", "operator %q is not supported for %q values", op, t)
	}
	items := v.Items()
	if len(items) != rule.arity {
		return "", domain.InvalidDescriptorf("value", "operator %q expects %d value(s), got %d", op, rule.arity, len(items))
	}

	lits := make([]string, len(items))
	for i, it := range items {
		lit, err := literal(d, a, t, it, rule.like)
		if err != nil {
			return "", err
		}
		lits[i] = lit
	}
	return rule.render(column, lits), nil
}

// literal renders a value of type t, binding or inlining per dialect
func literal(d Dialect, a *Args, t domain.FilterType, v any, pattern func(string) string) (string, error) {
	switch t {
	case domain.FilterNumber:
		f, ok := domain.NumberLiteral(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", domain.InvalidDescriptorf("value", "%v is not a number", v)
		}
		return d.Number(a, f), nil
	case domain.FilterString:
		s, ok := domain.StringLiteral(v)
		if !ok {
			return "", domain.InvalidDescriptorf("value", "%v is not a string", v)
		}
		if pattern != nil {
			s = pattern(s)
		}
		return d.String(a, s), nil
	case domain.FilterDate:
		ts, ok := domain.AsTime(v)
		if !ok {
			return "", domain.InvalidDescriptorf("value", "%v is not a date", v)
		}
		return d.Time(a, ts), nil
	}
	return "", domain.InvalidDescriptorf("type", "unknown filter type %q", t)
}
