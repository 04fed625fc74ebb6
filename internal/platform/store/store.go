// Package store opens the read side of the event stores insights queries
package store

import (
	"context"
	"errors"
	"fmt"

	"insights/internal/platform/logger"
)

// Store holds the opened backends, a nil field means that backend is disabled
type Store struct {
	Log logger.Logger

	PG Reader
	CH Reader
}

// Rows is a forward only result set, Close must be called
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// Querier runs one read statement
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Reader is a backend connection pool seen from the query path
type Reader interface {
	Querier
	Ping(ctx context.Context) error
	Close() error
}

// Option configures Open
type Option func(*Store)

// WithLogger sets the logger backends trace through
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.Log = l }
}

// Open connects the backends enabled in cfg
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}

	if cfg.PG.Enabled {
		r, err := openPG(ctx, cfg, s.Log)
		if err != nil {
			return nil, err
		}
		s.PG = r
	}
	if cfg.CH.Enabled {
		r, err := openCH(ctx, cfg, s.Log)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = r
	}
	return s, nil
}

// Guard pings every opened backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	for name, r := range s.backends() {
		if err := r.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases every opened backend
func (s *Store) Close(context.Context) error {
	var errs []error
	for _, r := range s.backends() {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

func (s *Store) backends() map[string]Reader {
	out := map[string]Reader{}
	if s.PG != nil {
		out["pg"] = s.PG
	}
	if s.CH != nil {
		out["ch"] = s.CH
	}
	return out
}
