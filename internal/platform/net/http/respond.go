// Package http holds the router seam, the JSON envelope and the server used by the insights api
package http

import (
	stdhttp "net/http"

	jsoniter "github.com/json-iterator/go"

	perr "insights/internal/platform/errors"
	pnet "insights/internal/platform/net"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the body of every response
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorEnvelope builds the envelope for err, the status comes from its code
func ErrorEnvelope(err error, reqID string) Envelope {
	status := perr.HTTPStatus(err)
	wire := perr.WireFrom(err)
	return Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		Field:      wire.Field,
		RequestID:  reqID,
	}
}

// Response is what return style handlers hand back, an error Body becomes an error envelope
type Response struct {
	Status int
	Body   any
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error returns a response whose status follows the error code
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a return style handler
func Handle(h func(*stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	reqID := pnet.RequestID(r.Context())
	if err, ok := resp.Body.(error); ok && err != nil {
		env := ErrorEnvelope(err, reqID)
		JSON(w, env.StatusCode, env)
		return
	}
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  reqID,
		Data:       resp.Body,
	})
}
