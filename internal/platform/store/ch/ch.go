// Package ch is the read only clickhouse client insights queries through
package ch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the client
type Config struct {
	URL string

	// AppName and ClientTag end up in system.query_log client info
	AppName   string
	ClientTag string

	MaxOpenConns int
	DialTimeout  time.Duration

	// MaxExecution maps to the max_execution_time server setting, zero keeps the server default
	MaxExecution time.Duration
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// CH wraps a clickhouse-go connection
type CH struct {
	conn driver.Conn
}

var openConn = clickhouse.Open

// Open parses the DSN and returns a lazily connected client
func Open(_ context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: parse dsn: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		opts.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.Settings == nil {
		opts.Settings = clickhouse.Settings{}
	}
	if cfg.MaxExecution > 0 {
		opts.Settings["max_execution_time"] = int(cfg.MaxExecution.Seconds())
	}
	// statements never write, readonly=2 still lets the session change settings
	opts.Settings["readonly"] = 2
	opts.ClientInfo = ClientInfo(cfg.AppName, cfg.ClientTag)

	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: open: %w", err)
	}
	return &CH{conn: conn}, nil
}

// New wraps an existing connection
func New(conn driver.Conn) *CH { return &CH{conn: conn} }

// Ping checks the native handshake and that a trivial select runs
func (c *CH) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return errors.New("clickhouse: nil connection")
	}
	if err := c.conn.Ping(ctx); err != nil {
		return err
	}
	var one int32
	return c.conn.QueryRow(ctx, "SELECT toInt32(1)").Scan(&one)
}

// Query runs a query and returns rows that also accept *any scan targets
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &rows{r: r, types: r.ColumnTypes()}, nil
}

// Close closes the connection pool
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// rows scans *any destinations through the column scan type so callers
// can read untyped rows the same way they do with pgx
type rows struct {
	r     driver.Rows
	types []driver.ColumnType
}

func (r *rows) Next() bool        { return r.r.Next() }
func (r *rows) Err() error        { return r.r.Err() }
func (r *rows) Close() error      { return r.r.Close() }
func (r *rows) Columns() []string { return r.r.Columns() }

func (r *rows) Scan(dest ...any) error {
	dynamic := false
	for _, d := range dest {
		if _, ok := d.(*any); ok {
			dynamic = true
			break
		}
	}
	if !dynamic {
		return r.r.Scan(dest...)
	}
	if len(dest) != len(r.types) {
		return fmt.Errorf("clickhouse: scan got %d targets for %d columns", len(dest), len(r.types))
	}

	tmp := make([]any, len(dest))
	for i, d := range dest {
		if _, ok := d.(*any); ok {
			tmp[i] = reflect.New(r.types[i].ScanType()).Interface()
			continue
		}
		tmp[i] = d
	}
	if err := r.r.Scan(tmp...); err != nil {
		return err
	}
	for i, d := range dest {
		if p, ok := d.(*any); ok {
			*p = indirect(reflect.ValueOf(tmp[i]).Elem())
		}
	}
	return nil
}

// indirect strips pointer layers left by Nullable scan types
func indirect(v reflect.Value) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}
