package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/wordstore/schema"
)

// DefaultCacheSize is the number of resource definitions kept in memory.
const DefaultCacheSize = 128

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	cacheSize  int
	encoding   schema.Encoding
}

// Option configures a World.
type Option func(*options)

// WithLogger sets the logger. Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEncoding sets the enum encoding of resources registered from now on.
// Registered resources keep the encoding they were created with.
func WithEncoding(enc schema.Encoding) Option {
	return func(o *options) { o.encoding = enc }
}

// WithCacheSize bounds the resource definition cache.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithRegisterer registers the operation counters on r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}
