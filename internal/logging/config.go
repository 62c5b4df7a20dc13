package logging

import "fmt"

// Config holds logging configuration.
type Config struct {
	Level  string            `koanf:"level" yaml:"level"`
	Format string            `koanf:"format" yaml:"format"`
	Fields map[string]string `koanf:"fields" yaml:"fields,omitempty"`
}

// DefaultConfig returns console logging at info.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Fields: map[string]string{"service": "docqa"},
	}
}

// Validate checks config for errors.
func (c Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if _, err := LevelFromString(c.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	return nil
}
