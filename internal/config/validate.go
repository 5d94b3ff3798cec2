package config

import (
	"fmt"
	"strings"
)

var validFormats = map[string]bool{
	"":    true,
	"mp3": true,
	"m4a": true,
	"m4b": true,
	"mp4": true,
	"mkv": true,
	"mka": true,
	"ogg": true,
	"ts":  true,
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOutput() error {
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("output.format %q is not a supported container", c.Output.Format)
	}
	if !strings.Contains(c.Output.Template, "{") {
		return fmt.Errorf("output.template %q has no substitution keys", c.Output.Template)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
