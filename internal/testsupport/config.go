package testsupport

import (
	"path/filepath"
	"testing"

	"gamearr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Workflow.DiscoveryDelays = []int{0, 0, 0, 0, 0}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithQBittorrent points the test config at a download client URL.
func WithQBittorrent(url, username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.QBittorrent.URL = url
		b.cfg.QBittorrent.Username = username
		b.cfg.QBittorrent.Password = password
	}
}

// WithCategory overrides the configured download category.
func WithCategory(category string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Downloads.Category = category
	}
}

// WithDryRun enables dry-run grabs.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Downloads.DryRun = true
	}
}

// WithNtfyTopic sets the notification endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
