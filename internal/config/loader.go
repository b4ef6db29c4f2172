package config

import (
	"github.com/spf13/viper"

	"github.com/compass-engine/compass/internal/types"
)

// Load reads configuration from the given YAML file, layered over the
// defaults. An empty path returns the defaults unchanged. The result is
// validated before being returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "reading config file", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "unmarshaling config", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants the engine relies on.
// Timeouts must be finite and positive; a zero rate budget is legal (the
// gate degrades to WARN) but a negative one is not.
func Validate(cfg *Config) error {
	switch {
	case cfg.Engine.MaxParallel <= 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "engine.max_parallel must be positive")
	case cfg.Engine.TaskTimeout <= 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "engine.task_timeout must be positive")
	case cfg.Engine.GroupRetryLimit < 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "engine.group_retry_limit must not be negative")
	case cfg.Validation.CacheTTL <= 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "validation.cache_ttl must be positive")
	case cfg.Validation.CacheMaxEntries <= 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "validation.cache_max_entries must be positive")
	case cfg.Validation.RateRequests < 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "validation.rate_requests must not be negative")
	case cfg.Validation.RateWindow <= 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "validation.rate_window must be positive")
	case cfg.Validation.CallTimeout <= 0:
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "validation.call_timeout must be positive")
	}
	return nil
}
