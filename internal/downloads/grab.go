package downloads

import (
	"context"
	"fmt"
	"strings"

	"gamearr/internal/logging"
	"gamearr/internal/metrics"
	"gamearr/internal/services"
	"gamearr/internal/store"
	"gamearr/internal/torrents"
)

// DryRunReleaseID is returned by GrabRelease when dry-run mode suppressed the grab.
const DryRunReleaseID int64 = -1

// ReleaseCandidate is a search result chosen for download.
type ReleaseCandidate struct {
	Title       string
	Size        *int64
	Seeders     *int
	DownloadURL string
	Indexer     string
	Quality     string
}

// GrabResult identifies the recorded release. Hash is set only when it was
// known before GrabRelease returned (magnet links).
type GrabResult struct {
	ReleaseID int64
	Hash      string
}

// DryRun reports whether a GrabResult came from a suppressed grab.
func (r GrabResult) DryRun() bool {
	return r.ReleaseID == DryRunReleaseID
}

// GrabRelease records a release for gameID and submits it to the download
// client. Hash discovery for non-magnet URLs continues in the background
// after GrabRelease returns.
func (s *Service) GrabRelease(ctx context.Context, gameID int64, candidate ReleaseCandidate) (GrabResult, error) {
	ctx = services.WithGameID(ctx, gameID)
	logger := s.logger.With(logging.Int64(logging.FieldGameID, gameID))

	candidate.Title = strings.TrimSpace(candidate.Title)
	candidate.DownloadURL = strings.TrimSpace(candidate.DownloadURL)
	if candidate.DownloadURL == "" {
		return GrabResult{}, services.Wrap(services.ErrValidation, "downloads", "grab", "release has no download url", nil)
	}
	if candidate.Title == "" {
		return GrabResult{}, services.Wrap(services.ErrValidation, "downloads", "grab", "release has no title", nil)
	}

	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return GrabResult{}, fmt.Errorf("load game %d: %w", gameID, err)
	}
	if game == nil {
		return GrabResult{}, services.Wrap(services.ErrNotFound, "downloads", "grab", fmt.Sprintf("game %d not found", gameID), nil)
	}

	if s.settings.DryRun(ctx) {
		logger.Info("dry run enabled; release not submitted",
			logging.String(logging.FieldEventType, "grab_dry_run"),
			logging.String("release_title", candidate.Title),
			logging.String("indexer", candidate.Indexer),
		)
		s.metrics.RecordGrab(metrics.GrabDryRun)
		return GrabResult{ReleaseID: DryRunReleaseID}, nil
	}

	if !s.client.Configured() {
		return GrabResult{}, services.Wrap(services.ErrConfiguration, "downloads", "grab", "download client is not configured", nil)
	}

	category := s.categoryForGame(ctx, game)

	rel, err := s.store.CreateRelease(ctx, store.NewRelease{
		GameID:      gameID,
		Title:       candidate.Title,
		Size:        candidate.Size,
		Seeders:     candidate.Seeders,
		DownloadURL: candidate.DownloadURL,
		Indexer:     candidate.Indexer,
		Quality:     candidate.Quality,
		Status:      store.ReleasePending,
	})
	if err != nil {
		return GrabResult{}, fmt.Errorf("record release: %w", err)
	}
	ctx = services.WithReleaseID(ctx, rel.ID)
	logger = logger.With(logging.Int64(logging.FieldReleaseID, rel.ID))

	err = s.client.Submit(ctx, candidate.DownloadURL, torrents.SubmitOptions{
		Category: category,
		Tags:     torrents.SubmissionTags(s.marker, gameID),
	})
	if err != nil {
		s.metrics.RecordGrab(metrics.GrabFailed)
		if markErr := s.store.UpdateReleaseStatus(ctx, rel.ID, store.ReleaseFailed); markErr != nil {
			logging.WarnWithContext(logger, "failed to mark release failed", "release_update_failed",
				logging.Error(markErr),
				logging.String(logging.FieldImpact, "release stays pending until the next reconciliation pass"),
			)
		}
		logging.ErrorWithContext(logger, "download client rejected release", "grab_failed",
			logging.Error(err),
			logging.String("release_title", candidate.Title),
			logging.String(logging.FieldErrorHint, "run `gamearr client test` to check connectivity"),
		)
		if services.Kind(err) == "unknown" {
			err = services.Wrap(services.ErrExternalClient, "downloads", "submit release", "", err)
		}
		return GrabResult{ReleaseID: rel.ID}, err
	}

	downloading := store.ReleaseDownloading
	if err := s.store.UpdateRelease(ctx, rel.ID, store.ReleaseUpdate{Status: &downloading}); err != nil {
		return GrabResult{ReleaseID: rel.ID}, fmt.Errorf("mark release downloading: %w", err)
	}
	if err := s.store.UpdateGameStatus(ctx, gameID, store.GameDownloading); err != nil {
		return GrabResult{ReleaseID: rel.ID}, fmt.Errorf("mark game downloading: %w", err)
	}
	s.metrics.RecordGrab(metrics.GrabSubmitted)

	result := GrabResult{ReleaseID: rel.ID}
	if hash, ok := torrents.MagnetHash(candidate.DownloadURL); ok {
		if _, err := s.store.SetReleaseHash(ctx, rel.ID, hash, nil); err != nil {
			logging.WarnWithContext(logger, "failed to store magnet hash", "hash_store_failed",
				logging.Error(err),
				logging.String(logging.FieldTorrentHash, hash),
				logging.String(logging.FieldImpact, "reconciliation will match the release by tag instead"),
			)
		} else {
			result.Hash = hash
			s.metrics.RecordDiscovery(metrics.DiscoveryFound)
		}
	} else {
		rel.Status = store.ReleaseDownloading
		s.startDiscovery(rel, category)
	}

	logger.Info("release submitted",
		logging.String(logging.FieldEventType, "grab_submitted"),
		logging.String("release_title", candidate.Title),
		logging.String("category", category),
		logging.String(logging.FieldTorrentHash, result.Hash),
	)
	if err := s.notifier.NotifyGrabSubmitted(ctx, game.Title, candidate.Title, candidate.Indexer); err != nil {
		logger.Debug("grab notification failed", logging.Error(err))
	}
	return result, nil
}

// categoryForGame returns the game's library category override, falling back
// to the global download category.
func (s *Service) categoryForGame(ctx context.Context, game *store.Game) string {
	if game != nil && game.LibraryID != nil {
		lib, err := s.store.GetLibrary(ctx, *game.LibraryID)
		if err != nil {
			s.logger.Debug("library lookup failed; using global category",
				logging.Int64(logging.FieldGameID, game.ID),
				logging.Error(err),
			)
		} else if lib != nil && strings.TrimSpace(lib.DownloadCategory) != "" {
			return strings.TrimSpace(lib.DownloadCategory)
		}
	}
	return s.settings.DownloadCategory(ctx)
}
