package sqlgen

import (
	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/label"
)

// groupSelect emits one column per plain group and one per custom group entry
func (b *builder) groupSelect(groups []domain.Group) ([]string, []string, error) {
	var cols, labels []string
	for _, g := range groups {
		valueCol, ok := b.e.ValueColumn(g.Type)
		if !ok {
			return nil, nil, domain.InvalidDescriptorf("groups.type", "unknown group type %q", g.Type)
		}
		for i, l := range label.ForGroup(g) {
			name, err := label.Encode(l)
			if err != nil {
				return nil, nil, err
			}
			if err := checkAlias("groups", name); err != nil {
				return nil, nil, err
			}
			expr := b.dataCol(valueCol)
			if l.Custom() {
				cg := g.CustomGroups[i]
				expr, err = Compile(b.d, b.args, g.Type, cg.FilterOperator, cg.FilterValue, b.dataCol(valueCol))
				if err != nil {
					return nil, nil, err
				}
			}
			cols = append(cols, expr+" AS "+b.d.Alias(name))
			labels = append(labels, name)
		}
	}
	return cols, labels, nil
}
