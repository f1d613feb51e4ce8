package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRelay(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validatePiping(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRelay() error {
	if c.Relay.ChunkSize <= 0 {
		return errors.New("relay.chunk_size must be positive")
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.Threshold <= 0 {
		return errors.New("probe.threshold must be positive")
	}
	if c.Probe.Ceiling < c.Probe.Threshold {
		return errors.New("probe.ceiling must be at least probe.threshold")
	}
	return nil
}

func (c *Config) validatePiping() error {
	if err := validateAbsoluteURL("piping.base_url", c.Piping.BaseURL); err != nil {
		return err
	}
	if c.Piping.AppURL != "" {
		if err := validateAbsoluteURL("piping.app_url", c.Piping.AppURL); err != nil {
			return err
		}
	}
	if c.Piping.TimeoutSeconds <= 0 {
		return errors.New("piping.timeout_seconds must be positive")
	}
	_, err := c.PipingTLSConfig()
	return err
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
}

func validateAbsoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https url, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, raw)
	}
	return nil
}
