package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"insights/internal/platform/store/pg"
)

type pgReader struct{ p *pg.PG }

func (r pgReader) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rows, err := r.p.Pool.Query(ctx, sql, args...)
	if err != nil {
		r.trace(ctx, sql, args, start, 0, err)
		return nil, err
	}
	return &pgRows{Rows: rows, ctx: ctx, r: r, sql: sql, args: args, start: start}, nil
}

func (r pgReader) Ping(ctx context.Context) error { return r.p.Pool.Ping(ctx) }

func (r pgReader) Close() error {
	r.p.Close()
	return nil
}

func (r pgReader) trace(ctx context.Context, sql string, args []any, start time.Time, n int, err error) {
	if r.p.Tracer == nil {
		return
	}
	el := time.Since(start)
	r.p.Tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:     sql,
		Args:    args,
		Elapsed: el,
		Rows:    n,
		Err:     err,
		Slow:    r.p.SlowMs > 0 && el >= time.Duration(r.p.SlowMs)*time.Millisecond,
	})
}

// pgRows traces on Close so the elapsed time covers the whole scan
type pgRows struct {
	pgx.Rows
	ctx   context.Context
	r     pgReader
	sql   string
	args  []any
	start time.Time
	n     int
	done  bool
}

func (w *pgRows) Next() bool {
	ok := w.Rows.Next()
	if ok {
		w.n++
	}
	return ok
}

func (w *pgRows) Scan(dest ...any) error {
	// pgx only fills *any through Values
	for _, d := range dest {
		if _, ok := d.(*any); !ok {
			return w.Rows.Scan(dest...)
		}
	}
	vals, err := w.Rows.Values()
	if err != nil {
		return err
	}
	for i := range dest {
		if i < len(vals) {
			*(dest[i].(*any)) = vals[i]
		}
	}
	return nil
}

func (w *pgRows) Columns() []string {
	fds := w.Rows.FieldDescriptions()
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.Name
	}
	return out
}

func (w *pgRows) Close() {
	w.Rows.Close()
	if w.done {
		return
	}
	w.done = true
	w.r.trace(w.ctx, w.sql, w.args, w.start, w.n, w.Rows.Err())
}
