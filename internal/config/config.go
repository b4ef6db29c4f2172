// Package config loads and validates the engine's tunables. Every
// configuration constant the design leaves open (TTLs, rate windows,
// retry counts, timeouts) is explicit and injectable here rather than
// hard-coded at the call sites.
package config

import "time"

// Config is the root configuration for the engine.
type Config struct {
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Trigger    TriggerConfig    `mapstructure:"trigger" yaml:"trigger"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// EngineConfig contains orchestrator settings.
type EngineConfig struct {
	// MaxParallel bounds concurrent task execution within a group.
	MaxParallel int `mapstructure:"max_parallel" yaml:"max_parallel"`

	// TaskTimeout bounds each task invocation.
	TaskTimeout time.Duration `mapstructure:"task_timeout" yaml:"task_timeout"`

	// GroupRetryLimit is how many times a parallel group is re-dispatched
	// after a transient member failure.
	GroupRetryLimit int `mapstructure:"group_retry_limit" yaml:"group_retry_limit"`
}

// ValidationConfig contains validation gate settings.
type ValidationConfig struct {
	// BaseURL is the documentation collaborator endpoint.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// CacheTTL is how long a validation record stays fresh.
	CacheTTL time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`

	// CacheMaxEntries bounds the validation cache.
	CacheMaxEntries int `mapstructure:"cache_max_entries" yaml:"cache_max_entries"`

	// RateRequests is the collaborator call budget per window, per resource.
	RateRequests int `mapstructure:"rate_requests" yaml:"rate_requests"`

	// RateWindow is the rate limiting window.
	RateWindow time.Duration `mapstructure:"rate_window" yaml:"rate_window"`

	// CallTimeout bounds each collaborator call.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
}

// TriggerConfig contains trigger classifier settings.
type TriggerConfig struct {
	// Threshold is the minimum number of complexity keyword matches
	// before orchestration is invoked.
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxParallel:     4,
			TaskTimeout:     60 * time.Second,
			GroupRetryLimit: 1,
		},
		Validation: ValidationConfig{
			BaseURL:         "https://docs.internal/validate",
			CacheTTL:        15 * time.Minute,
			CacheMaxEntries: 256,
			RateRequests:    10,
			RateWindow:      time.Minute,
			CallTimeout:     10 * time.Second,
		},
		Trigger: TriggerConfig{
			Threshold: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
