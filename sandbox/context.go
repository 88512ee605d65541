// Package sandbox owns the lifecycle of one sandbox: the namespace
// resolver, type registry, enum resolution cache, class preparer, value
// converter and host function surface, plus a deterministic runtime for
// executing guest modules.
//
// Every cache lives on the Context rather than in package-level state,
// so tearing down a context discards all of them and a fresh context
// starts from nothing. This is what makes enum resolution reproducible
// across sandbox reloads.
package sandbox

import (
	"github.com/caffeineduck/kago/enums"
	"github.com/caffeineduck/kago/hostapi"
	"github.com/caffeineduck/kago/namespace"
	"github.com/caffeineduck/kago/prepare"
	"github.com/caffeineduck/kago/remap"
	"github.com/caffeineduck/kago/typeinfo"
	"github.com/caffeineduck/kago/value"
)

// Context is one sandbox class-loading context.
type Context struct {
	resolver  *namespace.Resolver
	types     *typeinfo.Registry
	enums     *enums.Cache
	hostEnums *value.HostEnums
	converter *value.Converter
	preparer  *prepare.Preparer
	registry  *hostapi.Registry
}

type contextConfig struct {
	prefix      string
	prepareOpts []prepare.Option
}

// Option configures a Context.
type Option func(*contextConfig)

// WithPrefix overrides the sandbox namespace prefix.
func WithPrefix(prefix string) Option {
	return func(c *contextConfig) {
		c.prefix = prefix
	}
}

// WithPolicy restricts which host types class preparation may reference.
func WithPolicy(p remap.Policy) Option {
	return func(c *contextConfig) {
		c.prepareOpts = append(c.prepareOpts, prepare.WithPolicy(p))
	}
}

// WithStrictHostNames rejects class units already carrying the sandbox
// prefix instead of passing them through.
func WithStrictHostNames() Option {
	return func(c *contextConfig) {
		c.prepareOpts = append(c.prepareOpts, prepare.WithStrictHostNames())
	}
}

// NewContext returns a fresh sandbox context with empty caches.
func NewContext(opts ...Option) *Context {
	var cfg contextConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	resolver := namespace.New(cfg.prefix)
	types := typeinfo.NewRegistry()
	cache := enums.NewCache(resolver, types)
	hostEnums := value.NewHostEnums()

	return &Context{
		resolver:  resolver,
		types:     types,
		enums:     cache,
		hostEnums: hostEnums,
		converter: value.NewConverter(resolver, cache, hostEnums),
		preparer:  prepare.New(resolver, types, cfg.prepareOpts...),
		registry:  hostapi.NewRegistry(),
	}
}

// Prepare remaps one class unit into this context.
func (c *Context) Prepare(cls prepare.Class) (*prepare.Prepared, error) {
	return c.preparer.Prepare(cls)
}

// Resolver returns the context's namespace resolver.
func (c *Context) Resolver() *namespace.Resolver { return c.resolver }

// Types returns the context's type registry.
func (c *Context) Types() *typeinfo.Registry { return c.types }

// Enums returns the context's enum resolution cache.
func (c *Context) Enums() *enums.Cache { return c.enums }

// HostEnums returns the host-side enum constant table.
func (c *Context) HostEnums() *value.HostEnums { return c.hostEnums }

// Converter returns the boundary value converter.
func (c *Context) Converter() *value.Converter { return c.converter }

// Preparer returns the context's class preparer.
func (c *Context) Preparer() *prepare.Preparer { return c.preparer }

// Registry returns the host function surface exposed to guests.
func (c *Context) Registry() *hostapi.Registry { return c.registry }
