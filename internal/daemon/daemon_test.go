package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamearr/internal/config"
	"gamearr/internal/downloads"
	"gamearr/internal/logging"
	"gamearr/internal/metrics"
	"gamearr/internal/services"
	"gamearr/internal/testsupport"
)

type fakeReconciler struct {
	mu      sync.Mutex
	calls   int
	results []error
	summary downloads.Summary
}

func (f *fakeReconciler) Reconcile(context.Context) (downloads.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) > 0 {
		err := f.results[0]
		f.results = f.results[1:]
		if err != nil {
			return downloads.Summary{}, err
		}
	}
	return f.summary, nil
}

func (f *fakeReconciler) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
	tests  int
}

func (n *recordingNotifier) NotifyGrabSubmitted(context.Context, string, string, string) error {
	return nil
}

func (n *recordingNotifier) NotifyDownloadCompleted(context.Context, string, string) error {
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, _ error, where string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, where)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tests++
	return nil
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func newTestDaemon(t *testing.T, engine Reconciler, notifier *recordingNotifier, opts ...testsupport.ConfigOption) (*Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, st, engine, notifier, metrics.New(), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, cfg
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil, nil, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestDaemonStartStop(t *testing.T) {
	engine := &fakeReconciler{}
	d, cfg := newTestDaemon(t, engine, &recordingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}
	if d.Addr() == "" {
		t.Fatal("expected api server to be listening")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start on the same daemon to fail")
	}

	other, err := New(cfg, testsupport.MustOpenStore(t, cfg), &fakeReconciler{}, &recordingNotifier{}, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected lock contention for second daemon instance")
	}

	deadline := time.Now().Add(2 * time.Second)
	for engine.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected an immediate reconciliation pass")
		}
		time.Sleep(10 * time.Millisecond)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to report stopped")
	}
	if d.Addr() != "" {
		t.Fatal("expected api server to be closed")
	}

	// The lock is released, so a new instance can take over.
	if err := other.Start(ctx); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	other.Stop()
}

func TestRunPassTracksConnectivity(t *testing.T) {
	down := services.Wrap(services.ErrExternalClient, "downloads", "list torrents", "qBittorrent request failed", errors.New("connection refused"))
	engine := &fakeReconciler{
		results: []error{down, down, down, nil},
		summary: downloads.Summary{Checked: 2, Completed: 1},
	}
	notifier := &recordingNotifier{}
	d, _ := newTestDaemon(t, engine, notifier)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := d.runPass(ctx); err == nil {
			t.Fatalf("pass %d: expected failure", i)
		}
	}
	health := d.Connectivity()
	if health.Reachable || health.ConsecutiveFailures != 3 {
		t.Fatalf("unexpected connectivity after outage: %+v", health)
	}
	if health.LastErrorKind != "external_client" {
		t.Fatalf("expected external_client kind, got %q", health.LastErrorKind)
	}
	if notifier.errorCount() != 1 {
		t.Fatalf("expected a single outage notification, got %d", notifier.errorCount())
	}

	summary, err := d.runPass(ctx)
	if err != nil {
		t.Fatalf("recovery pass: %v", err)
	}
	if summary.Completed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	health = d.Connectivity()
	if !health.Reachable || health.ConsecutiveFailures != 0 || health.LastError != "" {
		t.Fatalf("unexpected connectivity after recovery: %+v", health)
	}
	if health.LastSuccessAt.IsZero() || health.LastSummary.Checked != 2 {
		t.Fatalf("expected last success recorded: %+v", health)
	}
}

func TestRunPassIgnoresSkippedPasses(t *testing.T) {
	engine := &fakeReconciler{summary: downloads.Summary{Skipped: true}}
	d, _ := newTestDaemon(t, engine, &recordingNotifier{})

	if _, err := d.runPass(context.Background()); err != nil {
		t.Fatalf("runPass: %v", err)
	}
	if health := d.Connectivity(); !health.LastSuccessAt.IsZero() {
		t.Fatalf("skipped pass should not count as success: %+v", health)
	}
}

func TestTestNotification(t *testing.T) {
	notifier := &recordingNotifier{}
	d, _ := newTestDaemon(t, &fakeReconciler{}, notifier)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil || sent {
		t.Fatalf("expected unconfigured result, got sent=%v err=%v", sent, err)
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", message)
	}

	d2, _ := newTestDaemon(t, &fakeReconciler{}, notifier, testsupport.WithNtfyTopic("https://ntfy.example/gamearr"))
	sent, _, err = d2.TestNotification(context.Background())
	if err != nil || !sent {
		t.Fatalf("expected notification sent, got sent=%v err=%v", sent, err)
	}
	if notifier.tests != 1 {
		t.Fatalf("expected one test notification, got %d", notifier.tests)
	}
}
