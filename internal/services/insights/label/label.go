// Package label encodes group column names so result rows can be mapped back to their groups
//
// A plain group column is named %<group>, a custom group column is named
// %<group>|<operator>|<value>. The separator is banned inside every part which
// keeps decoding unambiguous.
package label

import (
	"strings"

	"insights/internal/services/insights/domain"
)

const (
	prefix = "%"
	sep    = "|"
)

// Label is the decoded identity of a group column
type Label struct {
	Group    string
	Operator string
	Value    string
}

// Custom reports whether the label comes from a custom group
func (l Label) Custom() bool { return l.Operator != "" }

// IsLabel reports whether a result column carries a group label
func IsLabel(column string) bool { return strings.HasPrefix(column, prefix) }

// Encode renders l as a column name
func Encode(l Label) (string, error) {
	if l.Group == "" {
		return "", domain.InvalidDescriptorf("groups.value", "group value is required")
	}
	for _, p := range [...]struct{ field, text string }{
		{"groups.value", l.Group},
		{"groups.customGroups.filterOperator", l.Operator},
		{"groups.customGroups.filterValue", l.Value},
	} {
		if strings.Contains(p.text, sep) {
			return "", domain.InvalidDescriptorf(p.field, "%q must not contain %q", p.text, sep)
		}
	}
	if !l.Custom() {
		return prefix + l.Group, nil
	}
	return prefix + l.Group + sep + l.Operator + sep + l.Value, nil
}

// Decode parses a column name produced by Encode
func Decode(column string) (Label, error) {
	if !IsLabel(column) {
		return Label{}, domain.LabelDecodef("column %q is not a group label", column)
	}
	parts := strings.Split(column[len(prefix):], sep)
	var l Label
	switch len(parts) {
	case 1:
		l = Label{Group: parts[0]}
	case 3:
		l = Label{Group: parts[0], Operator: parts[1], Value: parts[2]}
		if l.Operator == "" {
			return Label{}, domain.LabelDecodef("column %q has an empty operator", column)
		}
	default:
		return Label{}, domain.LabelDecodef("column %q has %d parts", column, len(parts))
	}
	if l.Group == "" {
		return Label{}, domain.LabelDecodef("column %q has an empty group", column)
	}
	return l, nil
}

// ForGroup lists the labels a group expands into, in select order
func ForGroup(g domain.Group) []Label {
	if len(g.CustomGroups) == 0 {
		return []Label{{Group: g.Value}}
	}
	out := make([]Label, 0, len(g.CustomGroups))
	for _, cg := range g.CustomGroups {
		out = append(out, Label{Group: g.Value, Operator: cg.FilterOperator, Value: cg.FilterValue.Text()})
	}
	return out
}
