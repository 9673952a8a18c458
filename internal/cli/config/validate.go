package config

import (
	"fmt"
	"strings"
)

var logLevels = []string{"debug", "info", "warn", "error"}

var outputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !contains(logLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log_level %q (expected one of %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if !contains(outputFormats, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("invalid output %q (expected one of %s)", c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	return c.Project().Validate()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
