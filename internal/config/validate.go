package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. Missing download client
// credentials are not an error here; grabs fail with a configuration error
// instead so read-only commands keep working.
func (c *Config) Validate() error {
	if err := c.validateQBittorrent(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQBittorrent() error {
	if c.QBittorrent.URL == "" {
		return nil
	}
	parsed, err := url.Parse(c.QBittorrent.URL)
	if err != nil {
		return fmt.Errorf("qbittorrent.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("qbittorrent.url must use http or https, got %q", c.QBittorrent.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("qbittorrent.url is missing a host: %q", c.QBittorrent.URL)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ReconcileInterval <= 0 {
		return errors.New("workflow.reconcile_interval must be positive")
	}
	for i, delay := range c.Workflow.DiscoveryDelays {
		if delay < 0 {
			return fmt.Errorf("workflow.discovery_delays[%d] must not be negative", i)
		}
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
