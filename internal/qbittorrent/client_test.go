package qbittorrent

import (
	"context"
	"errors"
	"testing"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"

	"gamearr/internal/config"
	"gamearr/internal/logging"
	"gamearr/internal/services"
	"gamearr/internal/torrents"
)

type fakeAPI struct {
	loginErrs   []error
	logins      int
	listErrs    []error
	listCalls   int
	torrents    []qbt.Torrent
	lastFilter  qbt.TorrentFilterOptions
	addedURL    string
	addOptions  map[string]string
	categories  map[string]qbt.Category
	version     string
	pausedWith  []string
	resumedWith []string
	deleted     []string
	deleteFiles bool
	taggedWith  []string
	tags        string
}

func (f *fakeAPI) LoginCtx(context.Context) error {
	f.logins++
	if len(f.loginErrs) > 0 {
		err := f.loginErrs[0]
		f.loginErrs = f.loginErrs[1:]
		return err
	}
	return nil
}

func (f *fakeAPI) GetTorrentsCtx(_ context.Context, opts qbt.TorrentFilterOptions) ([]qbt.Torrent, error) {
	f.listCalls++
	f.lastFilter = opts
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.torrents, nil
}

func (f *fakeAPI) AddTorrentFromUrlCtx(_ context.Context, url string, options map[string]string) error {
	f.addedURL = url
	f.addOptions = options
	return nil
}

func (f *fakeAPI) DeleteTorrentsCtx(_ context.Context, hashes []string, deleteFiles bool) error {
	f.deleted = hashes
	f.deleteFiles = deleteFiles
	return nil
}

func (f *fakeAPI) PauseCtx(_ context.Context, hashes []string) error {
	f.pausedWith = hashes
	return nil
}

func (f *fakeAPI) ResumeCtx(_ context.Context, hashes []string) error {
	f.resumedWith = hashes
	return nil
}

func (f *fakeAPI) AddTagsCtx(_ context.Context, hashes []string, tags string) error {
	f.taggedWith = hashes
	f.tags = tags
	return nil
}

func (f *fakeAPI) GetCategoriesCtx(context.Context) (map[string]qbt.Category, error) {
	return f.categories, nil
}

func (f *fakeAPI) GetAppVersionCtx(context.Context) (string, error) {
	return f.version, nil
}

func newTestClient(api *fakeAPI) *Client {
	return &Client{api: api, configured: true, logger: logging.NewNop()}
}

func TestUnconfiguredClientReturnsConfigurationError(t *testing.T) {
	cfg := config.Default()
	client := New(&cfg, logging.NewNop())
	if client.Configured() {
		t.Fatal("client without url should not be configured")
	}
	if _, err := client.ListTorrents(context.Background(), ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if client.TestConnection(context.Background()) {
		t.Fatal("unconfigured client must fail connection test")
	}
}

func TestListTorrentsConvertsSnapshots(t *testing.T) {
	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeAPI{torrents: []qbt.Torrent{
		{
			Hash:     "ABCDEF0123456789ABCDEF0123456789ABCDEF01",
			Name:     "Test.Game.v1.0-GOG",
			Size:     1024,
			Progress: 0.5,
			State:    qbt.TorrentState("downloading"),
			Category: "games",
			Tags:     "gamearr,game-7",
			AddedOn:  added.Unix(),
		},
	}}
	client := newTestClient(api)

	list, err := client.ListTorrents(context.Background(), "games")
	if err != nil {
		t.Fatalf("ListTorrents: %v", err)
	}
	if api.lastFilter.Category != "games" {
		t.Fatalf("expected category filter, got %q", api.lastFilter.Category)
	}
	if len(list) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(list))
	}
	snap := list[0]
	if snap.Hash != "abcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("hash not lowercased: %q", snap.Hash)
	}
	if snap.State != "downloading" || snap.Tags != "gamearr,game-7" || snap.Size != 1024 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	if !snap.AddedAt.Equal(added) {
		t.Fatalf("unexpected added time: %v", snap.AddedAt)
	}
	if !snap.CompletedAt.IsZero() {
		t.Fatalf("completion time should be zero, got %v", snap.CompletedAt)
	}
}

func TestExpiredSessionRetriesExactlyOnce(t *testing.T) {
	api := &fakeAPI{listErrs: []error{errors.New("unexpected status: 403 Forbidden")}}
	client := newTestClient(api)

	if _, err := client.ListTorrents(context.Background(), ""); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if api.logins != 2 {
		t.Fatalf("expected two logins, got %d", api.logins)
	}
	if api.listCalls != 2 {
		t.Fatalf("expected two list calls, got %d", api.listCalls)
	}

	forbidden := errors.New("403 forbidden")
	api = &fakeAPI{listErrs: []error{forbidden, forbidden, nil}}
	client = newTestClient(api)
	_, err := client.ListTorrents(context.Background(), "")
	if !errors.Is(err, services.ErrExternalClient) {
		t.Fatalf("expected external client error after second failure, got %v", err)
	}
	if api.listCalls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", api.listCalls)
	}
}

func TestLoginIsReusedAcrossCalls(t *testing.T) {
	api := &fakeAPI{version: "v5.0.0"}
	client := newTestClient(api)
	ctx := context.Background()

	if !client.TestConnection(ctx) {
		t.Fatal("expected connection test to succeed")
	}
	if _, err := client.ListTorrents(ctx, ""); err != nil {
		t.Fatalf("ListTorrents: %v", err)
	}
	if api.logins != 1 {
		t.Fatalf("expected a single login, got %d", api.logins)
	}
}

func TestBadCredentialsAreConfigurationErrors(t *testing.T) {
	api := &fakeAPI{loginErrs: []error{errors.New("login error: bad credentials")}}
	client := newTestClient(api)

	_, err := client.ListTorrents(context.Background(), "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if api.listCalls != 0 {
		t.Fatal("list should not run without a session")
	}
}

func TestLoginTransportFailureIsExternal(t *testing.T) {
	api := &fakeAPI{loginErrs: []error{errors.New("dial tcp 127.0.0.1:8080: connection refused")}}
	client := newTestClient(api)

	_, err := client.ListTorrents(context.Background(), "")
	if !errors.Is(err, services.ErrExternalClient) {
		t.Fatalf("expected external client error, got %v", err)
	}
}

func TestSubmitBuildsOptions(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(api)

	err := client.Submit(context.Background(), "magnet:?xt=urn:btih:abc", torrents.SubmitOptions{
		Category: "games",
		Tags:     "gamearr,game-3",
		Paused:   true,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if api.addedURL != "magnet:?xt=urn:btih:abc" {
		t.Fatalf("unexpected url %q", api.addedURL)
	}
	want := map[string]string{"category": "games", "tags": "gamearr,game-3", "paused": "true", "stopped": "true"}
	for key, value := range want {
		if api.addOptions[key] != value {
			t.Fatalf("option %s = %q, want %q", key, api.addOptions[key], value)
		}
	}

	if err := client.Submit(context.Background(), "https://x/1.torrent", torrents.SubmitOptions{}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := api.addOptions["category"]; ok {
		t.Fatal("empty category should not be sent")
	}
	if api.addOptions["paused"] != "false" {
		t.Fatalf("expected paused=false, got %q", api.addOptions["paused"])
	}
}

func TestTorrentActionsAndCategories(t *testing.T) {
	api := &fakeAPI{categories: map[string]qbt.Category{"tv": {}, "games": {}, "movies": {}}}
	client := newTestClient(api)
	ctx := context.Background()
	hashes := []string{"abc"}

	if err := client.Pause(ctx, hashes); err != nil || len(api.pausedWith) != 1 {
		t.Fatalf("Pause: %v %v", err, api.pausedWith)
	}
	if err := client.Resume(ctx, hashes); err != nil || len(api.resumedWith) != 1 {
		t.Fatalf("Resume: %v %v", err, api.resumedWith)
	}
	if err := client.Delete(ctx, hashes, true); err != nil || !api.deleteFiles {
		t.Fatalf("Delete: %v deleteFiles=%v", err, api.deleteFiles)
	}
	if err := client.AddTags(ctx, hashes, "gamearr,game-1"); err != nil || api.tags != "gamearr,game-1" {
		t.Fatalf("AddTags: %v %q", err, api.tags)
	}
	names, err := client.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(names) != 3 || names[0] != "games" || names[2] != "tv" {
		t.Fatalf("expected sorted categories, got %v", names)
	}
}

func TestIsSessionExpired(t *testing.T) {
	cases := map[string]bool{
		"unexpected status: 403":  true,
		"401 Unauthorized":        true,
		"connection refused":      false,
		"torrent not found (404)": false,
	}
	for msg, want := range cases {
		if got := isSessionExpired(errors.New(msg)); got != want {
			t.Fatalf("isSessionExpired(%q) = %v, want %v", msg, got, want)
		}
	}
	if isSessionExpired(context.Canceled) {
		t.Fatal("cancellation is not an auth failure")
	}
}
