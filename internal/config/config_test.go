package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gamearr/internal/config"
)

func clearClientEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"QBITTORRENT_URL", "QBITTORRENT_USERNAME", "QBITTORRENT_PASSWORD", "NTFY_TOPIC"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearClientEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "gamearr")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "gamearr.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7878" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.ClientConfigured() {
		t.Fatal("expected client to be unconfigured by default")
	}
	if cfg.Downloads.Category != "games" || cfg.Downloads.Tag != "gamearr" {
		t.Fatalf("unexpected download defaults: %+v", cfg.Downloads)
	}
	if got := cfg.Workflow.DiscoveryDelays; !reflect.DeepEqual(got, []int{2, 3, 5, 8, 10}) {
		t.Fatalf("unexpected discovery delays: %v", got)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	clearClientEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("QBITTORRENT_URL", "http://qbit.local:8080/")
	t.Setenv("QBITTORRENT_USERNAME", "admin")
	t.Setenv("QBITTORRENT_PASSWORD", "secret")
	t.Setenv("NTFY_TOPIC", "https://ntfy.sh/games")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.QBittorrent.URL != "http://qbit.local:8080" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.QBittorrent.URL)
	}
	if cfg.QBittorrent.Username != "admin" || cfg.QBittorrent.Password != "secret" {
		t.Fatalf("unexpected credentials: %+v", cfg.QBittorrent)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/games" {
		t.Fatalf("unexpected ntfy topic: %q", cfg.Notifications.NtfyTopic)
	}
	if !cfg.ClientConfigured() {
		t.Fatal("expected client configured from env")
	}
}

func TestLoadDotEnvBesideConfig(t *testing.T) {
	clearClientEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[downloads]\ncategory = \"pc-games\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envBody := "QBITTORRENT_URL=http://from-dotenv:8080\nQBITTORRENT_PASSWORD=dotenv-pass\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envBody), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("QBITTORRENT_URL")
		os.Unsetenv("QBITTORRENT_PASSWORD")
	})

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Downloads.Category != "pc-games" {
		t.Fatalf("expected category from file, got %q", cfg.Downloads.Category)
	}
	if cfg.QBittorrent.URL != "http://from-dotenv:8080" {
		t.Fatalf("expected url from .env, got %q", cfg.QBittorrent.URL)
	}
	if cfg.QBittorrent.Password != "dotenv-pass" {
		t.Fatalf("expected password from .env, got %q", cfg.QBittorrent.Password)
	}
}

func TestFileValuesWinOverEnv(t *testing.T) {
	clearClientEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("QBITTORRENT_URL", "http://env:8080")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[qbittorrent]\nurl = \"https://file:8443\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.QBittorrent.URL != "https://file:8443" {
		t.Fatalf("expected file url to win, got %q", cfg.QBittorrent.URL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "bad scheme",
			mutate:  func(c *config.Config) { c.QBittorrent.URL = "ftp://host" },
			wantErr: "qbittorrent.url",
		},
		{
			name:    "zero interval",
			mutate:  func(c *config.Config) { c.Workflow.ReconcileInterval = 0 },
			wantErr: "reconcile_interval",
		},
		{
			name:    "negative delay",
			mutate:  func(c *config.Config) { c.Workflow.DiscoveryDelays = []int{2, -1} },
			wantErr: "discovery_delays[1]",
		},
		{
			name:    "log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Workflow.ReconcileInterval != config.Default().Workflow.ReconcileInterval {
		t.Fatalf("sample reconcile interval drifted from defaults: %d", cfg.Workflow.ReconcileInterval)
	}
	if cfg.Downloads.Category != config.Default().Downloads.Category {
		t.Fatalf("sample category drifted from defaults: %q", cfg.Downloads.Category)
	}
}
