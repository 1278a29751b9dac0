package logger

import "fmt"

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"log-level"`
	Format    string `yaml:"format" mapstructure:"log-format"`
	Output    string `yaml:"output" mapstructure:"log-output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no-color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"log-timestamp"`
}

// ApplyDefaults applies default values to logging configuration. Logs go
// to stderr so stdout stays reserved for results.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "warn"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "disabled"}
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("log-level must be one of %v (got: %s)", validLevels, c.Level)
	}
	validFormats := []string{"json", "console"}
	if !contains(validFormats, c.Format) {
		return fmt.Errorf("log-format must be one of %v (got: %s)", validFormats, c.Format)
	}
	return nil
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
