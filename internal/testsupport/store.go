package testsupport

import (
	"context"
	"testing"

	"gamearr/internal/config"
	"gamearr/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewGame creates a wanted game for tests using the provided store.
func NewGame(t testing.TB, st *store.Store, title, platform string) *store.Game {
	t.Helper()

	game, err := st.CreateGame(context.Background(), store.NewGame{Title: title, Platform: platform})
	if err != nil {
		t.Fatalf("store.CreateGame: %v", err)
	}
	return game
}

// NewRelease records a release for tests using the provided store.
func NewRelease(t testing.TB, st *store.Store, in store.NewRelease) *store.Release {
	t.Helper()

	if in.DownloadURL == "" {
		in.DownloadURL = "https://indexer.example/download/1.torrent"
	}
	if in.Indexer == "" {
		in.Indexer = "test-indexer"
	}
	rel, err := st.CreateRelease(context.Background(), in)
	if err != nil {
		t.Fatalf("store.CreateRelease: %v", err)
	}
	return rel
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
