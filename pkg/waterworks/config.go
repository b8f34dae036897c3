package waterworks

import (
	"github.com/Adi0604/Water-Works/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// HTTPConfig configures the dashboard listener.
	HTTPConfig = config.HTTPConfig
	// MetricsConfig toggles the /metrics endpoint.
	MetricsConfig = config.MetricsConfig
	// LoggingConfig selects log level and format.
	LoggingConfig = config.LoggingConfig
	// DatabaseConfig holds the connection settings of sql sources.
	DatabaseConfig = config.DatabaseConfig
	// SourceConfig declares a sql or xlsx source.
	SourceConfig = config.SourceConfig
	// VariantConfig binds a facility page to a source, feed and catalog.
	VariantConfig = config.VariantConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes and validates an in-memory YAML document.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
