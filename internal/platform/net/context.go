// Package net holds request context accessors shared by transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestID returns the id assigned by the request id middleware, empty outside a request
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
