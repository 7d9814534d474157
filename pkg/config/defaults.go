package config

import (
	"strings"
	"time"

	"github.com/loftfs/loft/pkg/apps"
	"github.com/loftfs/loft/pkg/fs/access"
	"github.com/loftfs/loft/pkg/fs/store"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Called after loading configuration from file and environment variables to
// fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	cfg.Database.ApplyDefaults()
	applyCacheDefaults(&cfg.Cache)
	applySigningDefaults(&cfg.Signing)
	applyMetricsDefaults(&cfg.Metrics)
	applyShutdownTimeoutDefaults(cfg)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.ResultTTL == 0 {
		cfg.ResultTTL = 5 * time.Minute
	}
	if cfg.PendingTTL == 0 {
		cfg.PendingTTL = 5 * time.Second
	}
	if cfg.SuggestionLRUSize == 0 {
		cfg.SuggestionLRUSize = apps.DefaultSuggestionLRUSize
	}
}

func applySigningDefaults(cfg *SigningConfig) {
	if cfg.GrantTTLSeconds == 0 {
		cfg.GrantTTLSeconds = access.DefaultGrantTTLSeconds
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in)
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a configuration with every default applied.
//
// Note: the signing secret has no default. A config built this way fails
// validation until one is provided via file or LOFT_SIGNING_SECRET.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
		Signing: SigningConfig{
			APIBaseURL: "http://localhost:4100",
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
