package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeNetwork()
	c.normalizeDownload()
	c.normalizeLogging()
	return c.normalizeSources()
}

func (c *Config) normalizeOutput() error {
	var err error
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = defaultOutputDir
	}
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	if strings.TrimSpace(c.Output.Template) == "" {
		c.Output.Template = defaultOutputTemplate
	}
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if strings.TrimSpace(c.Output.Encoder) == "" {
		c.Output.Encoder = defaultEncoder
	}
	if strings.TrimSpace(c.Output.LedgerDir) != "" {
		if c.Output.LedgerDir, err = expandPath(c.Output.LedgerDir); err != nil {
			return fmt.Errorf("output.ledger_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeNetwork() {
	if c.Network.TimeoutSeconds <= 0 {
		c.Network.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Network.UserAgent = strings.TrimSpace(c.Network.UserAgent)
}

func (c *Config) normalizeDownload() {
	if c.Download.Workers <= 0 {
		c.Download.Workers = defaultDownloadWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeSources() error {
	for name, auth := range c.Sources {
		if auth.CookieFile != "" {
			expanded, err := expandPath(auth.CookieFile)
			if err != nil {
				return fmt.Errorf("sources.%s.cookie_file: %w", name, err)
			}
			auth.CookieFile = expanded
			c.Sources[name] = auth
		}
	}
	return nil
}
