package store

import (
	"context"

	chx "insights/internal/platform/store/ch"
)

type chReader struct{ c *chx.CH }

func (r chReader) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := r.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{rows}, nil
}

func (r chReader) Ping(ctx context.Context) error { return r.c.Ping(ctx) }
func (r chReader) Close() error                   { return r.c.Close() }

type chRows struct{ chx.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
