package downloads

import (
	"context"
	"fmt"

	"gamearr/internal/logging"
	"gamearr/internal/services"
	"gamearr/internal/store"
)

// PauseRelease stops transfer of the release's torrent.
func (s *Service) PauseRelease(ctx context.Context, releaseID int64) error {
	rel, err := s.releaseWithHash(ctx, releaseID, "pause")
	if err != nil {
		return err
	}
	if err := s.client.Pause(ctx, []string{rel.TorrentHash}); err != nil {
		return err
	}
	s.logger.Info("release paused", logging.Int64(logging.FieldReleaseID, rel.ID), logging.String(logging.FieldTorrentHash, rel.TorrentHash))
	return nil
}

// ResumeRelease restarts transfer of the release's torrent.
func (s *Service) ResumeRelease(ctx context.Context, releaseID int64) error {
	rel, err := s.releaseWithHash(ctx, releaseID, "resume")
	if err != nil {
		return err
	}
	if err := s.client.Resume(ctx, []string{rel.TorrentHash}); err != nil {
		return err
	}
	s.logger.Info("release resumed", logging.Int64(logging.FieldReleaseID, rel.ID), logging.String(logging.FieldTorrentHash, rel.TorrentHash))
	return nil
}

// RemoveRelease deletes the release's torrent from the client, optionally
// with its data. The release row is kept.
func (s *Service) RemoveRelease(ctx context.Context, releaseID int64, deleteFiles bool) error {
	rel, err := s.releaseWithHash(ctx, releaseID, "remove")
	if err != nil {
		return err
	}
	if err := s.client.Delete(ctx, []string{rel.TorrentHash}, deleteFiles); err != nil {
		return err
	}
	s.logger.Info("release removed from download client",
		logging.Int64(logging.FieldReleaseID, rel.ID),
		logging.String(logging.FieldTorrentHash, rel.TorrentHash),
		logging.Bool("delete_files", deleteFiles),
	)
	return nil
}

func (s *Service) releaseWithHash(ctx context.Context, releaseID int64, operation string) (*store.Release, error) {
	rel, err := s.store.GetRelease(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("load release %d: %w", releaseID, err)
	}
	if rel == nil {
		return nil, services.Wrap(services.ErrNotFound, "downloads", operation, fmt.Sprintf("release %d not found", releaseID), nil)
	}
	if rel.TorrentHash == "" {
		return nil, services.Wrap(services.ErrNotFound, "downloads", operation, fmt.Sprintf("release %d has no known torrent hash", releaseID), nil)
	}
	if !s.client.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "downloads", operation, "download client is not configured", nil)
	}
	return rel, nil
}
