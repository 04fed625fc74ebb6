package store

import "time"

// Config selects and configures the backends Open connects
type Config struct {
	// AppName is reported to both servers
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures the postgres pool
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32

	// StatementTimeout is sent as statement_timeout, zero keeps the server default
	StatementTimeout time.Duration

	// LogSQL traces every statement, SlowQueryMs marks slow ones at warn
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries and PingTimeout bound the boot time wait for the server
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures the clickhouse connection
type CHConfig struct {
	Enabled bool
	URL     string

	// ClientTag is reported next to AppName in system.query_log
	ClientTag string

	MaxOpenConns int
	DialTimeout  time.Duration

	// MaxExecution is sent as max_execution_time, zero keeps the server default
	MaxExecution time.Duration

	// Ping verifies the server at boot
	Ping bool
}
