package daemon

import (
	"context"
	"time"

	"gamearr/internal/downloads"
	"gamearr/internal/logging"
	"gamearr/internal/services"
)

// Connectivity records how recent reconciliation passes fared.
type Connectivity struct {
	Reachable           bool              `json:"reachable"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	LastError           string            `json:"last_error,omitempty"`
	LastErrorKind       string            `json:"last_error_kind,omitempty"`
	LastFailureAt       time.Time         `json:"last_failure_at,omitzero"`
	LastSuccessAt       time.Time         `json:"last_success_at,omitzero"`
	LastSummary         downloads.Summary `json:"last_summary"`
}

// Connectivity returns a copy of the connectivity bookkeeping.
func (d *Daemon) Connectivity() Connectivity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

func (d *Daemon) schedule(ctx context.Context) {
	d.runPass(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runPass(ctx)
		}
	}
}

// runPass runs one reconciliation pass and records its outcome.
func (d *Daemon) runPass(ctx context.Context) (downloads.Summary, error) {
	summary, err := d.engine.Reconcile(ctx)
	if ctx.Err() != nil {
		return summary, err
	}
	if err != nil {
		d.recordFailure(ctx, err)
		return summary, err
	}
	if !summary.Skipped {
		d.recordSuccess(summary)
	}
	return summary, nil
}

func (d *Daemon) recordFailure(ctx context.Context, err error) {
	d.mu.Lock()
	d.health.Reachable = false
	d.health.ConsecutiveFailures++
	d.health.LastError = err.Error()
	d.health.LastErrorKind = services.Kind(err)
	d.health.LastFailureAt = time.Now()
	failures := d.health.ConsecutiveFailures
	d.mu.Unlock()

	if failures > 1 {
		d.logger.Debug("reconciliation still failing",
			logging.Int("consecutive_failures", failures),
			logging.Error(err),
		)
		return
	}

	hint := "check that qBittorrent is running and reachable at qbittorrent.url"
	if services.Kind(err) == "configuration" {
		hint = "set qbittorrent.url and credentials in config.toml, then run `gamearr client test`"
	}
	logging.WarnWithContext(d.logger, "download client unreachable", "client_unreachable",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "release statuses are not updated until the client is reachable"),
	)
	if notifyErr := d.notifier.NotifyError(ctx, err, "reconciliation"); notifyErr != nil {
		d.logger.Debug("error notification failed", logging.Error(notifyErr))
	}
}

func (d *Daemon) recordSuccess(summary downloads.Summary) {
	d.mu.Lock()
	previousFailures := d.health.ConsecutiveFailures
	d.health.Reachable = true
	d.health.ConsecutiveFailures = 0
	d.health.LastError = ""
	d.health.LastErrorKind = ""
	d.health.LastSuccessAt = time.Now()
	d.health.LastSummary = summary
	d.mu.Unlock()

	if previousFailures > 0 {
		d.logger.Info("download client reachable again",
			logging.String(logging.FieldEventType, "client_recovered"),
			logging.Int("failed_passes", previousFailures),
		)
	}
}
