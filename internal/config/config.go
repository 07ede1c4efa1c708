package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// QBittorrent contains connection settings for the download client.
type QBittorrent struct {
	URL            string `toml:"url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TLSSkipVerify  bool   `toml:"tls_skip_verify"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Downloads contains defaults for grabbing releases. Values stored through
// `gamearr settings set` take precedence at runtime.
type Downloads struct {
	Category string `toml:"category"`
	DryRun   bool   `toml:"dry_run"`
	Tag      string `toml:"tag"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Downloads      bool   `toml:"downloads"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for reconciliation timing.
type Workflow struct {
	ReconcileInterval int   `toml:"reconcile_interval"`
	DiscoveryDelays   []int `toml:"discovery_delays"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gamearr.
//
// Configuration sections by subsystem:
//   - Paths: database, logs and status server bind address
//   - QBittorrent: download client connection
//   - Downloads: category, dry-run and marker tag for grabs
//   - Notifications: ntfy push notification settings
//   - Workflow: reconciliation interval and hash discovery delays
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	QBittorrent   QBittorrent   `toml:"qbittorrent"`
	Downloads     Downloads     `toml:"downloads"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config file, when
// present, seeds environment fallbacks without overriding variables already set.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env")); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gamearr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "gamearr.db")
}

// LockPath returns the daemon single-instance lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "gamearr.lock")
}

// ClientConfigured reports whether a download client URL is present. The
// username may stay empty when qBittorrent bypasses auth for local clients.
func (c *Config) ClientConfigured() bool {
	return c.QBittorrent.URL != ""
}

// ClientTimeout returns the download client request timeout.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.QBittorrent.TimeoutSeconds) * time.Second
}

// ReconcileInterval returns the delay between scheduled reconciliation passes.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Workflow.ReconcileInterval) * time.Second
}

// DiscoveryDelays returns the waits between hash discovery attempts.
func (c *Config) DiscoveryDelays() []time.Duration {
	delays := make([]time.Duration, 0, len(c.Workflow.DiscoveryDelays))
	for _, seconds := range c.Workflow.DiscoveryDelays {
		delays = append(delays, time.Duration(seconds)*time.Second)
	}
	return delays
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
