// Package modkit builds API modules from the shared deps
package modkit

import (
	"insights/internal/modkit/httpkit"
	"insights/internal/modkit/module"
	"insights/internal/platform/config"
	"insights/internal/platform/logger"
	"insights/internal/platform/store"
	pstrings "insights/internal/platform/strings"
)

// Module is the contract api.Mount composes
type Module = module.Module

// Deps holds what every module may draw on, a nil backend is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.Reader
	CH  store.Reader
}

// Store views the backends as an opened store
func (d Deps) Store() *store.Store { return &store.Store{Log: d.Log, PG: d.PG, CH: d.CH} }

// Built is the module settings after options are applied
type Built struct {
	Name   string
	Prefix string
	Ports  any
}

// Option adjusts Built
type Option func(*Built)

// Build applies opts in order, later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// WithName sets the name the module registers its ports under
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the route prefix
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithPorts hands the module a value whose type the module owns
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Mount routes register under the normalized prefix
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	r.Route(pstrings.MustPrefix(b.Prefix), register)
}

// ModuleName returns the built name, panicking when it was never set
func (b Built) ModuleName() string { return pstrings.MustString(b.Name, "module name") }
