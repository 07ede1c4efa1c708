package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"gamearr/internal/config"
	"gamearr/internal/downloads"
	"gamearr/internal/logging"
	"gamearr/internal/metrics"
	"gamearr/internal/notifications"
	"gamearr/internal/store"
)

// Reconciler runs one reconciliation pass.
type Reconciler interface {
	Reconcile(ctx context.Context) (downloads.Summary, error)
}

// Daemon coordinates the scheduler and status server and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	engine   Reconciler
	notifier notifications.Service
	metrics  *metrics.Recorder
	interval time.Duration

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.RWMutex
	health Connectivity
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool         `json:"running"`
	ClientConfigured bool         `json:"client_configured"`
	DatabasePath     string       `json:"database_path"`
	LockFilePath     string       `json:"lock_file_path"`
	Interval         string       `json:"reconcile_interval"`
	Connectivity     Connectivity `json:"connectivity"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, engine Reconciler, notifier notifications.Service, rec *metrics.Recorder, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || engine == nil {
		return nil, errors.New("daemon requires config, store, and download engine")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if rec == nil {
		rec = metrics.New()
	}
	interval := cfg.ReconcileInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		engine:   engine,
		notifier: notifier,
		metrics:  rec,
		interval: interval,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the status server and begins
// scheduling reconciliation passes. The first pass runs immediately.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another gamearr daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.schedule(runCtx)
	}()

	d.logger.Info("gamearr daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("interval", d.interval),
	)
	return nil
}

// Stop stops scheduling, shuts down the status server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("gamearr daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the bound status server address, or "" when not listening.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:          d.running.Load(),
		ClientConfigured: d.cfg.ClientConfigured(),
		DatabasePath:     d.store.Path(),
		LockFilePath:     d.lockPath,
		Interval:         d.interval.String(),
		Connectivity:     d.Connectivity(),
	}
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
