package domain

import (
	"errors"
	"fmt"

	perr "insights/internal/platform/errors"
)

// Error kinds, match with errors.Is
var (
	ErrInvalidDescriptor    = errors.New("invalid descriptor")
	ErrUnsupportedOperator  = errors.New("unsupported operator")
	ErrUnknownEntity        = errors.New("unknown entity")
	ErrInvalidMetric        = errors.New("invalid metric")
	ErrQueryExecutionFailed = errors.New("query execution failed")
	ErrLabelDecode          = errors.New("label decode error")
)

// InvalidDescriptorf reports malformed input on field
func InvalidDescriptorf(field, format string, a ...any) error {
	return perr.WithField(perr.Wrapf(ErrInvalidDescriptor, perr.ErrorCodeValidation, format, a...), field)
}

// UnsupportedOperatorf reports an operator that is not allowed for its type
func UnsupportedOperatorf(field, format string, a ...any) error {
	return perr.WithField(perr.Wrapf(ErrUnsupportedOperator, perr.ErrorCodeInvalidArgument, format, a...), field)
}

// UnknownEntityf reports an insight type with no entity behind it
func UnknownEntityf(format string, a ...any) error {
	return perr.WithField(perr.Wrapf(ErrUnknownEntity, perr.ErrorCodeNotFound, format, a...), "insightType")
}

// InvalidMetricf reports a metric that cannot be compiled
func InvalidMetricf(field, format string, a ...any) error {
	return perr.WithField(perr.Wrapf(ErrInvalidMetric, perr.ErrorCodeInvalidArgument, format, a...), field)
}

// LabelDecodef reports a result column that does not parse as a group label
func LabelDecodef(format string, a ...any) error {
	return perr.Wrapf(ErrLabelDecode, perr.ErrorCodeUnknown, format, a...)
}

// ExecError carries the backend a statement failed on
type ExecError struct {
	Backend Backend
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Backend, ErrQueryExecutionFailed, e.Err)
}

// Unwrap exposes both the kind and the backend cause
func (e *ExecError) Unwrap() []error { return []error{ErrQueryExecutionFailed, e.Err} }

// ExecFailed wraps a backend error, keeping a more specific platform code when the cause has one
func ExecFailed(backend Backend, err error) error {
	code := perr.CodeOf(err)
	if code == perr.ErrorCodeUnknown {
		code = perr.ErrorCodeDB
	}
	return perr.Wrapf(&ExecError{Backend: backend, Err: err}, code, "insights query on %s", backend)
}

// BackendOf returns the backend attached to an execution error
func BackendOf(err error) (Backend, bool) {
	var ee *ExecError
	if errors.As(err, &ee) {
		return ee.Backend, true
	}
	return "", false
}
