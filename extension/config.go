package extension

import "time"

// Config holds the cap-table extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.captable" or "captable" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for cap-table routes (default: "/captable").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MaxRetries is how many times a commit is attempted when another
	// writer won the race for the next revision (default: 5).
	MaxRetries uint `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`

	// ReconcileInterval runs the reconciliation worker at this interval.
	// Zero disables it.
	ReconcileInterval time.Duration `json:"reconcile_interval" mapstructure:"reconcile_interval" yaml:"reconcile_interval"`

	// RedisAddr switches the per-account lock to a Redis lease shared by
	// every process using the same server. Empty keeps the in-process lock.
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr" yaml:"redis_addr"`

	// LockTTL bounds how long a Redis lease is held (default: 10s).
	LockTTL time.Duration `json:"lock_ttl" mapstructure:"lock_ttl" yaml:"lock_ttl"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:   "/captable",
		MaxRetries: 5,
		LockTTL:    10 * time.Second,
	}
}
