package errors

import (
	"context"
	stderrs "errors"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgres SQLSTATEs a read only workload can hit
const (
	pgQueryCanceled      = "57014"
	pgAdminShutdown      = "57P01"
	pgCannotConnectNow   = "57P03"
	pgTooManyConnections = "53300"
	pgClassConnection    = "08"
	pgClassData          = "22"
)

// clickhouse server exception codes
const (
	chCannotParseText     = 6
	chCannotParseInput    = 27
	chTypeMismatch        = 53
	chCannotConvertType   = 70
	chTimeoutExceeded     = 159
	chTooManyQueries      = 202
	chNetworkError        = 210
	chMemoryLimitExceeded = 241
	chQueryWasCancelled   = 394
)

// PostgresCode classifies a postgres query failure, ok is false when err carries no SQLSTATE
func PostgresCode(err error) (ErrorCode, bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return contextCode(err), false
	}
	switch {
	case pgErr.Code == pgQueryCanceled:
		return ErrorCodeTimeout, true
	case pgErr.Code == pgAdminShutdown, pgErr.Code == pgCannotConnectNow, pgErr.Code == pgTooManyConnections,
		hasClass(pgErr.Code, pgClassConnection):
		return ErrorCodeUnavailable, true
	case hasClass(pgErr.Code, pgClassData):
		return ErrorCodeInvalidArgument, true
	}
	return ErrorCodeDB, true
}

// ClickhouseCode classifies a clickhouse query failure, ok is false when err is not a server exception
func ClickhouseCode(err error) (ErrorCode, bool) {
	var ex *clickhouse.Exception
	if !stderrs.As(err, &ex) {
		return contextCode(err), false
	}
	switch ex.Code {
	case chTimeoutExceeded, chQueryWasCancelled:
		return ErrorCodeTimeout, true
	case chTooManyQueries, chNetworkError, chMemoryLimitExceeded:
		return ErrorCodeUnavailable, true
	case chCannotParseText, chCannotParseInput, chTypeMismatch, chCannotConvertType:
		return ErrorCodeInvalidArgument, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a postgres error with its mapped code, nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, _ := PostgresCode(err)
	return &Error{code: code, msg: msg, orig: err}
}

// FromClickhouse wraps a clickhouse error with its mapped code, nil stays nil
func FromClickhouse(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, _ := ClickhouseCode(err)
	return &Error{code: code, msg: msg, orig: err}
}

// contextCode classifies driver errors that carry no server code
func contextCode(err error) ErrorCode {
	if stderrs.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout
	}
	return ErrorCodeDB
}

func hasClass(state, class string) bool { return len(state) == 5 && state[:2] == class }
