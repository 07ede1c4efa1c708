package downloads

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gamearr/internal/config"
	"gamearr/internal/logging"
	"gamearr/internal/matching"
	"gamearr/internal/notifications"
	"gamearr/internal/store"
	"gamearr/internal/torrents"
)

// TorrentClient is the download client surface the engine drives.
type TorrentClient interface {
	Configured() bool
	ListTorrents(ctx context.Context, category string) ([]torrents.Snapshot, error)
	Submit(ctx context.Context, url string, opts torrents.SubmitOptions) error
	Delete(ctx context.Context, hashes []string, deleteFiles bool) error
	Pause(ctx context.Context, hashes []string) error
	Resume(ctx context.Context, hashes []string) error
	AddTags(ctx context.Context, hashes []string, tags string) error
}

// Store is the persistence the engine reads and writes.
type Store interface {
	GetGame(ctx context.Context, id int64) (*store.Game, error)
	GetGames(ctx context.Context, ids []int64) (map[int64]*store.Game, error)
	UpdateGameStatus(ctx context.Context, id int64, status store.GameStatus) error
	BatchUpdateGameStatus(ctx context.Context, ids []int64, status store.GameStatus) (int64, error)
	SetGameLibrary(ctx context.Context, gameID, libraryID int64) error

	GetLibrary(ctx context.Context, id int64) (*store.Library, error)
	ListLibraries(ctx context.Context) ([]*store.Library, error)

	CreateRelease(ctx context.Context, in store.NewRelease) (*store.Release, error)
	GetRelease(ctx context.Context, id int64) (*store.Release, error)
	UpdateRelease(ctx context.Context, id int64, update store.ReleaseUpdate) error
	SetReleaseHash(ctx context.Context, id int64, hash string, status *store.ReleaseStatus) (bool, error)
	UpdateReleaseStatus(ctx context.Context, id int64, status store.ReleaseStatus) error
	BatchUpdateReleaseStatus(ctx context.Context, ids []int64, status store.ReleaseStatus) (int64, error)
	ActiveReleases(ctx context.Context) ([]*store.Release, error)
}

// Settings supplies runtime download settings.
type Settings interface {
	DownloadCategory(ctx context.Context) string
	DryRun(ctx context.Context) bool
}

// Metrics receives engine counters. *metrics.Recorder satisfies it.
type Metrics interface {
	RecordGrab(outcome string)
	RecordDiscovery(outcome string)
	ObserveReconcile(elapsed time.Duration, active int, err error)
	RecordTransitions(status string, count int)
}

// Service owns grabbing and reconciliation. Construct one per process.
type Service struct {
	client   TorrentClient
	store    Store
	settings Settings
	notifier notifications.Service
	metrics  Metrics
	matcher  *matching.Matcher
	clock    Clock
	logger   *slog.Logger

	marker string
	delays []time.Duration

	reconcileMu sync.Mutex

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures optional Service behavior.
type Option func(*Service)

// WithClock replaces the wall clock used by hash discovery.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithNotifier replaces the notifier built from configuration.
func WithNotifier(n notifications.Service) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// New constructs the engine. Discovery delays and the marker tag come from cfg.
func New(cfg *config.Config, client TorrentClient, st Store, settings Settings, logger *slog.Logger, opts ...Option) *Service {
	logger = logging.NewComponentLogger(logger, "downloads")
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		client:   client,
		store:    st,
		settings: settings,
		notifier: notifications.NewService(cfg),
		metrics:  noopMetrics{},
		matcher:  matching.NewMatcher(logger),
		clock:    systemClock{},
		logger:   logger,
		marker:   torrents.DefaultMarker,
		delays:   defaultDiscoveryDelays(),
		baseCtx:  ctx,
		cancel:   cancel,
	}
	if cfg != nil {
		if cfg.Downloads.Tag != "" {
			s.marker = cfg.Downloads.Tag
		}
		if delays := cfg.DiscoveryDelays(); len(delays) > 0 {
			s.delays = delays
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close cancels in-flight hash discoveries. It does not wait for them.
func (s *Service) Close() {
	s.cancel()
}

// Wait blocks until every background hash discovery has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

func defaultDiscoveryDelays() []time.Duration {
	return []time.Duration{2 * time.Second, 3 * time.Second, 5 * time.Second, 8 * time.Second, 10 * time.Second}
}

type noopMetrics struct{}

func (noopMetrics) RecordGrab(string)                          {}
func (noopMetrics) RecordDiscovery(string)                     {}
func (noopMetrics) ObserveReconcile(time.Duration, int, error) {}
func (noopMetrics) RecordTransitions(string, int)              {}
