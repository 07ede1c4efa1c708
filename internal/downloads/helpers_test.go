package downloads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamearr/internal/config"
	"gamearr/internal/logging"
	"gamearr/internal/store"
	"gamearr/internal/testsupport"
	"gamearr/internal/torrents"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type submission struct {
	url  string
	opts torrents.SubmitOptions
}

type fakeClient struct {
	mu           sync.Mutex
	unconfigured bool
	torrents     []torrents.Snapshot
	listErr      error
	listCalls    int
	onList       func(call int) []torrents.Snapshot
	submitErr    error
	submissions  []submission
	paused       []string
	resumed      []string
	deleted      []string
	deleteFiles  bool
	tagged       map[string]string
}

func (f *fakeClient) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unconfigured
}

func (f *fakeClient) ListTorrents(_ context.Context, _ string) ([]torrents.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.onList != nil {
		return f.onList(f.listCalls), nil
	}
	return append([]torrents.Snapshot(nil), f.torrents...), nil
}

func (f *fakeClient) Submit(_ context.Context, url string, opts torrents.SubmitOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, submission{url: url, opts: opts})
	return f.submitErr
}

func (f *fakeClient) Delete(_ context.Context, hashes []string, deleteFiles bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, hashes...)
	f.deleteFiles = deleteFiles
	return nil
}

func (f *fakeClient) Pause(_ context.Context, hashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = append(f.paused, hashes...)
	return nil
}

func (f *fakeClient) Resume(_ context.Context, hashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = append(f.resumed, hashes...)
	return nil
}

func (f *fakeClient) AddTags(_ context.Context, hashes []string, tags string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagged == nil {
		f.tagged = make(map[string]string)
	}
	for _, hash := range hashes {
		f.tagged[hash] = tags
	}
	return nil
}

func (f *fakeClient) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeSettings struct {
	category string
	dryRun   bool
}

func (f fakeSettings) DownloadCategory(context.Context) string { return f.category }

func (f fakeSettings) DryRun(context.Context) bool { return f.dryRun }

type completedNotice struct {
	title    string
	platform string
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []completedNotice
	grabs     []string
	failWith  error
}

func (f *fakeNotifier) NotifyGrabSubmitted(_ context.Context, gameTitle, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grabs = append(f.grabs, gameTitle)
	return nil
}

func (f *fakeNotifier) NotifyDownloadCompleted(_ context.Context, gameTitle, platform string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, completedNotice{title: gameTitle, platform: platform})
	return f.failWith
}

func (f *fakeNotifier) NotifyError(context.Context, error, string) error { return nil }

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

// fakeClock records sleeps without waiting. When block is set, Sleep waits
// for cancellation instead.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	block  bool
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	block := c.block
	c.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return ctx.Err()
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type harness struct {
	cfg      *config.Config
	store    *store.Store
	client   *fakeClient
	notifier *fakeNotifier
	clock    *fakeClock
	settings fakeSettings
	svc      *Service
}

func newHarness(t *testing.T, mutate ...func(*harness)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithCategory("games"))
	h := &harness{
		cfg:      cfg,
		store:    testsupport.MustOpenStore(t, cfg),
		client:   &fakeClient{},
		notifier: &fakeNotifier{},
		clock:    &fakeClock{now: testNow},
		settings: fakeSettings{category: "games"},
	}
	for _, fn := range mutate {
		fn(h)
	}
	h.svc = New(h.cfg, h.client, h.store, h.settings, logging.NewNop(),
		WithClock(h.clock),
		WithNotifier(h.notifier),
	)
	t.Cleanup(func() {
		h.svc.Close()
		h.svc.Wait()
	})
	return h
}

func (h *harness) release(t *testing.T, id int64) *store.Release {
	t.Helper()
	rel, err := h.store.GetRelease(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRelease: %v", err)
	}
	if rel == nil {
		t.Fatalf("release %d missing", id)
	}
	return rel
}

func (h *harness) game(t *testing.T, id int64) *store.Game {
	t.Helper()
	game, err := h.store.GetGame(context.Background(), id)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if game == nil {
		t.Fatalf("game %d missing", id)
	}
	return game
}

var errClientDown = errors.New("dial tcp 127.0.0.1:8080: connection refused")
