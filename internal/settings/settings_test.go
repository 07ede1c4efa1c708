package settings_test

import (
	"context"
	"errors"
	"testing"

	"gamearr/internal/logging"
	"gamearr/internal/services"
	"gamearr/internal/settings"
	"gamearr/internal/testsupport"
)

func TestStoredValuesOverrideConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategory("games"))
	st := testsupport.MustOpenStore(t, cfg)
	svc := settings.New(st, cfg, logging.NewNop())
	ctx := context.Background()

	if got := svc.DownloadCategory(ctx); got != "games" {
		t.Fatalf("expected config default, got %q", got)
	}
	if svc.DryRun(ctx) {
		t.Fatal("expected dry run disabled by default")
	}

	if err := svc.Set(ctx, settings.KeyDownloadCategory, "pc-games"); err != nil {
		t.Fatalf("Set category: %v", err)
	}
	if err := svc.Set(ctx, settings.KeyDryRun, "1"); err != nil {
		t.Fatalf("Set dry run: %v", err)
	}
	if got := svc.DownloadCategory(ctx); got != "pc-games" {
		t.Fatalf("expected stored category, got %q", got)
	}
	if !svc.DryRun(ctx) {
		t.Fatal("expected stored dry run")
	}
	value, stored, err := svc.Get(ctx, settings.KeyDryRun)
	if err != nil || !stored || value != "true" {
		t.Fatalf("unexpected Get: %q %v %v", value, stored, err)
	}

	if err := svc.Set(ctx, settings.KeyDownloadCategory, ""); err != nil {
		t.Fatalf("clear category: %v", err)
	}
	if got := svc.DownloadCategory(ctx); got != "games" {
		t.Fatalf("expected config default after clearing, got %q", got)
	}
}

func TestSetRejectsInvalidValues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := settings.New(st, cfg, logging.NewNop())
	ctx := context.Background()

	if err := svc.Set(ctx, settings.KeyDryRun, "maybe"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.Set(ctx, "unknown", "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
	if _, _, err := svc.Get(ctx, "unknown"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
}

type failingBackend struct{}

func (failingBackend) GetSetting(context.Context, string) (string, bool, error) {
	return "", false, errors.New("database is locked")
}

func (failingBackend) SetSetting(context.Context, string, string) error { return nil }

func (failingBackend) DeleteSetting(context.Context, string) error { return nil }

func TestBackendFailureFallsBackToConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCategory("fallback"), testsupport.WithDryRun())
	svc := settings.New(failingBackend{}, cfg, logging.NewNop())
	ctx := context.Background()

	if got := svc.DownloadCategory(ctx); got != "fallback" {
		t.Fatalf("expected config category, got %q", got)
	}
	if !svc.DryRun(ctx) {
		t.Fatal("expected config dry run")
	}
}
