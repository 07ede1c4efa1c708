package store

import "time"

// GameStatus tracks where a wanted game is in its download lifecycle.
type GameStatus string

const (
	GameWanted      GameStatus = "wanted"
	GameDownloading GameStatus = "downloading"
	GameDownloaded  GameStatus = "downloaded"
)

// ReleaseStatus tracks a single download attempt. Transitions only move
// forward: pending, downloading, then completed or failed.
type ReleaseStatus string

const (
	ReleasePending     ReleaseStatus = "pending"
	ReleaseDownloading ReleaseStatus = "downloading"
	ReleaseCompleted   ReleaseStatus = "completed"
	ReleaseFailed      ReleaseStatus = "failed"
)

// ActiveReleaseStatuses are the statuses reconciliation still watches.
var ActiveReleaseStatuses = []ReleaseStatus{ReleasePending, ReleaseDownloading}

// IsTerminal reports whether the status can no longer change.
func (s ReleaseStatus) IsTerminal() bool {
	return s == ReleaseCompleted || s == ReleaseFailed
}

// IsActive reports whether reconciliation should still watch the release.
func (s ReleaseStatus) IsActive() bool {
	return s == ReleasePending || s == ReleaseDownloading
}

// Valid reports whether s is a known release status.
func (s ReleaseStatus) Valid() bool {
	switch s {
	case ReleasePending, ReleaseDownloading, ReleaseCompleted, ReleaseFailed:
		return true
	}
	return false
}

// Game is a library entry that releases are grabbed for.
type Game struct {
	ID        int64
	Title     string
	Platform  string
	Status    GameStatus
	LibraryID *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Library groups games by platform and may override the download category.
type Library struct {
	ID               int64
	Name             string
	Platform         string
	DownloadCategory string
	IsDefault        bool
	CreatedAt        time.Time
}

// Release is one tracked download attempt for a game.
type Release struct {
	ID          int64
	GameID      int64
	Title       string
	Size        *int64
	Seeders     *int
	DownloadURL string
	Indexer     string
	Quality     string
	TorrentHash string
	Status      ReleaseStatus
	GrabbedAt   time.Time
	UpdatedAt   time.Time
}

// NewRelease carries the fields needed to record a grab.
type NewRelease struct {
	GameID      int64
	Title       string
	Size        *int64
	Seeders     *int
	DownloadURL string
	Indexer     string
	Quality     string
	Status      ReleaseStatus
}

// ReleaseUpdate is a partial update; nil fields are left unchanged.
type ReleaseUpdate struct {
	Status      *ReleaseStatus
	TorrentHash *string
}

// NewGame carries the fields needed to add a game.
type NewGame struct {
	Title    string
	Platform string
}

// NewLibrary carries the fields needed to add a library.
type NewLibrary struct {
	Name             string
	Platform         string
	DownloadCategory string
	IsDefault        bool
}
