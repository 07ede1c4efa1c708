package qbittorrent

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"

	"gamearr/internal/config"
	"gamearr/internal/logging"
	"gamearr/internal/services"
	"gamearr/internal/torrents"
)

// api is the subset of the go-qbittorrent client gamearr calls.
type api interface {
	LoginCtx(ctx context.Context) error
	GetTorrentsCtx(ctx context.Context, opts qbt.TorrentFilterOptions) ([]qbt.Torrent, error)
	AddTorrentFromUrlCtx(ctx context.Context, url string, options map[string]string) error
	DeleteTorrentsCtx(ctx context.Context, hashes []string, deleteFiles bool) error
	PauseCtx(ctx context.Context, hashes []string) error
	ResumeCtx(ctx context.Context, hashes []string) error
	AddTagsCtx(ctx context.Context, hashes []string, tags string) error
	GetCategoriesCtx(ctx context.Context) (map[string]qbt.Category, error)
	GetAppVersionCtx(ctx context.Context) (string, error)
}

// Client adapts the qBittorrent Web API to the download engine. It logs in
// lazily and re-authenticates exactly once when a call reports an expired
// session.
type Client struct {
	api        api
	configured bool
	logger     *slog.Logger

	mu       sync.Mutex
	loggedIn bool
}

// New constructs a client from configuration. An empty URL yields a client
// whose calls fail with services.ErrConfiguration.
func New(cfg *config.Config, logger *slog.Logger) *Client {
	logger = logging.NewComponentLogger(logger, "qbittorrent")
	if cfg == nil || !cfg.ClientConfigured() {
		return &Client{logger: logger}
	}
	raw := qbt.NewClient(qbt.Config{
		Host:          cfg.QBittorrent.URL,
		Username:      cfg.QBittorrent.Username,
		Password:      cfg.QBittorrent.Password,
		TLSSkipVerify: cfg.QBittorrent.TLSSkipVerify,
		Timeout:       cfg.QBittorrent.TimeoutSeconds,
	})
	return &Client{api: raw, configured: true, logger: logger}
}

// Configured reports whether a download client URL was provided.
func (c *Client) Configured() bool {
	return c != nil && c.configured && c.api != nil
}

// ListTorrents returns every torrent, or only those in category when non-empty.
func (c *Client) ListTorrents(ctx context.Context, category string) ([]torrents.Snapshot, error) {
	var list []qbt.Torrent
	err := c.call(ctx, "list torrents", func(ctx context.Context) error {
		var err error
		list, err = c.api.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Category: category})
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]torrents.Snapshot, 0, len(list))
	for _, t := range list {
		out = append(out, toSnapshot(t))
	}
	return out, nil
}

// Submit adds a torrent by URL or magnet link.
func (c *Client) Submit(ctx context.Context, url string, opts torrents.SubmitOptions) error {
	options := map[string]string{
		"paused":  strconv.FormatBool(opts.Paused),
		"stopped": strconv.FormatBool(opts.Paused),
	}
	if opts.Category != "" {
		options["category"] = opts.Category
	}
	if opts.Tags != "" {
		options["tags"] = opts.Tags
	}
	return c.call(ctx, "add torrent", func(ctx context.Context) error {
		return c.api.AddTorrentFromUrlCtx(ctx, url, options)
	})
}

// Delete removes torrents, optionally with their downloaded data.
func (c *Client) Delete(ctx context.Context, hashes []string, deleteFiles bool) error {
	return c.call(ctx, "delete torrents", func(ctx context.Context) error {
		return c.api.DeleteTorrentsCtx(ctx, hashes, deleteFiles)
	})
}

// Pause stops transfer for the given torrents.
func (c *Client) Pause(ctx context.Context, hashes []string) error {
	return c.call(ctx, "pause torrents", func(ctx context.Context) error {
		return c.api.PauseCtx(ctx, hashes)
	})
}

// Resume restarts transfer for the given torrents.
func (c *Client) Resume(ctx context.Context, hashes []string) error {
	return c.call(ctx, "resume torrents", func(ctx context.Context) error {
		return c.api.ResumeCtx(ctx, hashes)
	})
}

// AddTags attaches a comma-separated tag list to the given torrents.
func (c *Client) AddTags(ctx context.Context, hashes []string, tags string) error {
	return c.call(ctx, "add tags", func(ctx context.Context) error {
		return c.api.AddTagsCtx(ctx, hashes, tags)
	})
}

// ListCategories returns the category names known to the client, sorted.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var categories map[string]qbt.Category
	err := c.call(ctx, "list categories", func(ctx context.Context) error {
		var err error
		categories, err = c.api.GetCategoriesCtx(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Version returns the client application version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	err := c.call(ctx, "app version", func(ctx context.Context) error {
		var err error
		version, err = c.api.GetAppVersionCtx(ctx)
		return err
	})
	return version, err
}

// TestConnection reports whether the client is reachable with the configured credentials.
func (c *Client) TestConnection(ctx context.Context) bool {
	version, err := c.Version(ctx)
	if err != nil {
		c.logger.Debug("connection test failed", logging.Error(err))
		return false
	}
	c.logger.Debug("connection test succeeded", logging.String("version", version))
	return true
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	if !c.Configured() {
		return services.Wrap(services.ErrConfiguration, "qbittorrent", operation, "download client url is not configured", nil)
	}
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}
	err := fn(ctx)
	if err != nil && isSessionExpired(err) {
		c.logger.Info("download client session expired; logging in again", logging.String("operation", operation))
		c.invalidate()
		if loginErr := c.ensureLogin(ctx); loginErr != nil {
			return loginErr
		}
		err = fn(ctx)
	}
	if err != nil {
		return services.Wrap(services.ErrExternalClient, "qbittorrent", operation, "", err)
	}
	return nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}
	if err := c.api.LoginCtx(ctx); err != nil {
		if isBadCredentials(err) {
			return services.Wrap(services.ErrConfiguration, "qbittorrent", "login", "credentials rejected", err)
		}
		return services.Wrap(services.ErrExternalClient, "qbittorrent", "login", "", err)
	}
	c.loggedIn = true
	return nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}

func isSessionExpired(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"401", "403", "forbidden", "unauthorized"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isBadCredentials(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad credentials") || strings.Contains(msg, "fails.")
}

func toSnapshot(t qbt.Torrent) torrents.Snapshot {
	snap := torrents.Snapshot{
		Hash:     strings.ToLower(t.Hash),
		Name:     t.Name,
		Size:     t.Size,
		Progress: t.Progress,
		State:    string(t.State),
		Category: t.Category,
		Tags:     t.Tags,
	}
	if t.AddedOn > 0 {
		snap.AddedAt = time.Unix(t.AddedOn, 0)
	}
	if t.CompletionOn > 0 {
		snap.CompletedAt = time.Unix(t.CompletionOn, 0)
	}
	return snap
}
