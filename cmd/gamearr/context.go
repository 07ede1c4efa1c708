package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"gamearr/internal/config"
	"gamearr/internal/downloads"
	"gamearr/internal/logging"
	"gamearr/internal/metrics"
	"gamearr/internal/notifications"
	"gamearr/internal/qbittorrent"
	"gamearr/internal/settings"
	"gamearr/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime bundles the components a command needs to touch the database and
// the download client.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	settings  *settings.Service
	client    *qbittorrent.Client
	notifier  notifications.Service
	metrics   *metrics.Recorder
	downloads *downloads.Service
}

// openRuntime wires the store, settings, download client and download
// service. When console is false, logs go only to the log file so command
// output stays readable.
func (c *commandContext) openRuntime(console bool) (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := commandLogger(cfg, console)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		settings: settings.New(st, cfg, logger),
		client:   qbittorrent.New(cfg, logger),
		notifier: notifications.NewService(cfg),
		metrics:  metrics.New(),
	}
	rt.downloads = downloads.New(cfg, rt.client, st, rt.settings, logger,
		downloads.WithMetrics(rt.metrics),
		downloads.WithNotifier(rt.notifier),
	)
	return rt, nil
}

// Close cancels background hash discovery and closes the store.
func (r *runtime) Close() {
	if r == nil {
		return
	}
	r.downloads.Close()
	r.downloads.Wait()
	if err := r.store.Close(); err != nil {
		r.logger.Warn("failed to close store", logging.Error(err))
	}
}

func (c *commandContext) withRuntime(fn func(*runtime) error) error {
	rt, err := c.openRuntime(false)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func commandLogger(cfg *config.Config, console bool) (*slog.Logger, error) {
	if console {
		return logging.NewFromConfig(cfg)
	}
	if strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return logging.NewNop(), nil
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "json",
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "gamearr.log")},
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
