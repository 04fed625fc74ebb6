package http

import (
	"net/http"

	"insights/internal/platform/net/http/bind"
)

// JSONHandler binds and validates a T from the body before calling fn
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		return result(fn(r, in))
	})
}

// NoBody calls fn without reading the body
func NoBody(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return result(fn(r)) })
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	return OK(out)
}
