package extension

import (
	"time"

	"github.com/xraph/captable"
	"github.com/xraph/captable/plugin"
	"github.com/xraph/captable/store"
)

// Option configures the cap-table Forge extension.
type Option func(*Extension)

// WithStore sets the store for the cap-table engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a captable.Option through to the underlying engine.
func WithEngineOption(opt captable.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a cap-table plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, captable.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for cap-table routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMaxRetries sets how many times a conflicting commit is attempted.
func WithMaxRetries(n uint) Option {
	return func(e *Extension) { e.config.MaxRetries = n }
}

// WithReconcileInterval enables the reconciliation worker.
func WithReconcileInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.ReconcileInterval = d }
}

// WithRedisLock serializes writers through the Redis server at addr.
func WithRedisLock(addr string, ttl time.Duration) Option {
	return func(e *Extension) {
		e.config.RedisAddr = addr
		e.config.LockTTL = ttl
	}
}
