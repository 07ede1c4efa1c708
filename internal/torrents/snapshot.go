package torrents

import (
	"strings"
	"time"
)

// Client states that mean the torrent cannot make progress.
const (
	StateError        = "error"
	StateMissingFiles = "missingFiles"
)

// Snapshot is one torrent as currently reported by the download client.
type Snapshot struct {
	Hash        string
	Name        string
	Size        int64
	Progress    float64
	State       string
	Category    string
	Tags        string
	AddedAt     time.Time
	CompletedAt time.Time
}

// IsComplete reports whether the payload is fully downloaded.
func (s Snapshot) IsComplete() bool {
	return s.Progress >= 1
}

// IsErrored reports whether the client flagged the torrent as broken.
func (s Snapshot) IsErrored() bool {
	return s.State == StateError || s.State == StateMissingFiles
}

// HashEquals compares a hash against the snapshot's hash ignoring case.
func (s Snapshot) HashEquals(hash string) bool {
	hash = strings.TrimSpace(hash)
	return hash != "" && strings.EqualFold(s.Hash, hash)
}

// AddedWithin reports whether the torrent was added no earlier than window before now.
func (s Snapshot) AddedWithin(now time.Time, window time.Duration) bool {
	if s.AddedAt.IsZero() {
		return false
	}
	return !s.AddedAt.Before(now.Add(-window))
}

// SubmitOptions control how the client files a newly submitted torrent.
type SubmitOptions struct {
	Category string
	Tags     string
	Paused   bool
}
