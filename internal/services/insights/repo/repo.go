// Package repo executes compiled insights statements against postgres or clickhouse
package repo

import (
	"context"
	"errors"
	"fmt"

	"insights/internal/modkit/repokit"
	perr "insights/internal/platform/errors"
	"insights/internal/platform/store"
	"insights/internal/services/insights/domain"
	"insights/internal/services/insights/sqlgen"
)

// Executor runs one statement and returns its rows in select order
type Executor interface {
	// Dialect is the capability flag the builder compiles against
	Dialect() sqlgen.Dialect
	Run(ctx context.Context, st sqlgen.Statement) (domain.ResultSet, error)
}

type (
	pgBinder struct{}
	chBinder struct{}

	pgExec struct{ q repokit.Queryer }
	chExec struct{ q repokit.Queryer }
)

// NewPG returns the binder for the postgres executor
func NewPG() repokit.Binder[Executor] { return pgBinder{} }

// NewCH returns the binder for the clickhouse executor
func NewCH() repokit.Binder[Executor] { return chBinder{} }

func (pgBinder) Bind(q repokit.Queryer) Executor { return &pgExec{q: q} }
func (chBinder) Bind(q repokit.Queryer) Executor { return &chExec{q: q} }

// Open picks the executor for backend from an opened store
func Open(backend domain.Backend, s *store.Store) (Executor, error) {
	if s == nil {
		return nil, errors.New("insights repo: nil store")
	}
	switch backend {
	case domain.BackendPostgres:
		if s.PG == nil {
			return nil, errors.New("insights repo: postgres backend selected but not enabled")
		}
		return repokit.MustBind(NewPG(), s.PG), nil
	case domain.BackendClickhouse:
		if s.CH == nil {
			return nil, errors.New("insights repo: clickhouse backend selected but not enabled")
		}
		return repokit.MustBind(NewCH(), s.CH), nil
	}
	return nil, fmt.Errorf("insights repo: unknown backend %q", backend)
}

func (e *pgExec) Dialect() sqlgen.Dialect { return sqlgen.Postgres{} }

func (e *pgExec) Run(ctx context.Context, st sqlgen.Statement) (domain.ResultSet, error) {
	if st.Backend != domain.BackendPostgres {
		return domain.ResultSet{}, domain.ExecFailed(domain.BackendPostgres,
			perr.Newf(perr.ErrorCodeInvalidArgument, "statement compiled for %s", st.Backend))
	}
	cols, rows, err := store.Table(ctx, e.q, st.SQL, st.Args...)
	if err != nil {
		return domain.ResultSet{}, domain.ExecFailed(domain.BackendPostgres, perr.FromPostgres(err, "insights query"))
	}
	return domain.ResultSet{Columns: cols, Rows: coerceRows(rows)}, nil
}

func (e *chExec) Dialect() sqlgen.Dialect { return sqlgen.Clickhouse{} }

func (e *chExec) Run(ctx context.Context, st sqlgen.Statement) (domain.ResultSet, error) {
	// clickhouse statements carry every literal inline
	if st.Backend != domain.BackendClickhouse || len(st.Args) > 0 {
		return domain.ResultSet{}, domain.ExecFailed(domain.BackendClickhouse,
			perr.Newf(perr.ErrorCodeInvalidArgument, "statement compiled for %s with %d args", st.Backend, len(st.Args)))
	}
	cols, rows, err := store.Table(ctx, e.q, st.SQL)
	if err != nil {
		return domain.ResultSet{}, domain.ExecFailed(domain.BackendClickhouse, perr.FromClickhouse(err, "insights query"))
	}
	return domain.ResultSet{Columns: cols, Rows: coerceRows(rows)}, nil
}
