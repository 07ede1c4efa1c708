package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeQBittorrent()
	c.normalizeDownloads()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("GAMEARR_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeQBittorrent() {
	lookup := func(current, key string) string {
		current = strings.TrimSpace(current)
		if current != "" {
			return current
		}
		if value, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(value)
		}
		return ""
	}
	c.QBittorrent.URL = strings.TrimRight(lookup(c.QBittorrent.URL, "QBITTORRENT_URL"), "/")
	c.QBittorrent.Username = lookup(c.QBittorrent.Username, "QBITTORRENT_USERNAME")
	if c.QBittorrent.Password == "" {
		if value, ok := os.LookupEnv("QBITTORRENT_PASSWORD"); ok {
			c.QBittorrent.Password = value
		}
	}
	if c.QBittorrent.TimeoutSeconds <= 0 {
		c.QBittorrent.TimeoutSeconds = defaultQBittorrentTimeout
	}
}

func (c *Config) normalizeDownloads() {
	c.Downloads.Category = strings.TrimSpace(c.Downloads.Category)
	c.Downloads.Tag = strings.TrimSpace(c.Downloads.Tag)
	if c.Downloads.Tag == "" {
		c.Downloads.Tag = defaultDownloadTag
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if len(c.Workflow.DiscoveryDelays) == 0 {
		c.Workflow.DiscoveryDelays = append([]int(nil), defaultDiscoveryDelays...)
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
