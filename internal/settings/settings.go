// Package settings resolves runtime download settings. Values saved in the
// database override the config file defaults and take effect on the next
// grab or reconciliation pass without a restart.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"gamearr/internal/config"
	"gamearr/internal/logging"
	"gamearr/internal/services"
)

// Known setting keys.
const (
	KeyDownloadCategory = "download_category"
	KeyDryRun           = "dry_run"
)

// Backend is the persistence the settings service reads and writes.
type Backend interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

// Service layers stored overrides on top of config defaults.
type Service struct {
	backend  Backend
	defaults config.Downloads
	logger   *slog.Logger
}

// New constructs a settings service.
func New(backend Backend, cfg *config.Config, logger *slog.Logger) *Service {
	var defaults config.Downloads
	if cfg != nil {
		defaults = cfg.Downloads
	}
	return &Service{
		backend:  backend,
		defaults: defaults,
		logger:   logging.NewComponentLogger(logger, "settings"),
	}
}

// Keys lists the settings that can be stored.
func Keys() []string {
	keys := []string{KeyDownloadCategory, KeyDryRun}
	sort.Strings(keys)
	return keys
}

// DownloadCategory returns the global category applied to submitted torrents.
func (s *Service) DownloadCategory(ctx context.Context) string {
	if value, ok := s.lookup(ctx, KeyDownloadCategory); ok {
		return value
	}
	return s.defaults.Category
}

// DryRun reports whether grabs should skip submission to the client.
func (s *Service) DryRun(ctx context.Context) bool {
	if value, ok := s.lookup(ctx, KeyDryRun); ok {
		enabled, err := strconv.ParseBool(value)
		if err == nil {
			return enabled
		}
		logging.WarnWithContext(s.logger, "ignoring unparseable dry_run setting", "settings_invalid",
			logging.String("value", value),
			logging.String(logging.FieldErrorHint, "run `gamearr settings set dry_run false`"),
			logging.String(logging.FieldImpact, "config file default is used"),
		)
	}
	return s.defaults.DryRun
}

// Get returns the effective value for key and whether it came from the database.
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	switch key {
	case KeyDownloadCategory:
		_, stored := s.lookup(ctx, key)
		return s.DownloadCategory(ctx), stored, nil
	case KeyDryRun:
		_, stored := s.lookup(ctx, key)
		return strconv.FormatBool(s.DryRun(ctx)), stored, nil
	default:
		return "", false, unknownKey(key)
	}
}

// Set validates and stores an override. An empty value removes the override.
func (s *Service) Set(ctx context.Context, key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyDownloadCategory:
	case KeyDryRun:
		if value != "" {
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return services.Wrap(services.ErrValidation, "settings", "set", fmt.Sprintf("dry_run must be true or false, got %q", value), nil)
			}
			value = strconv.FormatBool(enabled)
		}
	default:
		return unknownKey(key)
	}
	if value == "" {
		return s.backend.DeleteSetting(ctx, key)
	}
	return s.backend.SetSetting(ctx, key, value)
}

func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	if s.backend == nil {
		return "", false
	}
	value, ok, err := s.backend.GetSetting(ctx, key)
	if err != nil {
		logging.WarnWithContext(s.logger, "settings lookup failed", "settings_read_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "config file default is used"),
		)
		return "", false
	}
	return value, ok
}

func unknownKey(key string) error {
	return services.Wrap(services.ErrValidation, "settings", "", fmt.Sprintf("unknown setting %q (known: %s)", key, strings.Join(Keys(), ", ")), nil)
}
