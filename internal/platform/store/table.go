package store

import (
	"context"
	"time"
)

// Table runs sql and materializes every row as driver values in select order
func Table(ctx context.Context, q Querier, sql string, args ...any) ([]string, [][]any, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols := rows.Columns()
	out := [][]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range vals {
			vals[i] = deref(v)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}

// deref flattens the pointer the clickhouse driver hands back for Nullable dates
func deref(v any) any {
	if t, ok := v.(*time.Time); ok {
		if t == nil {
			return nil
		}
		return *t
	}
	return v
}
