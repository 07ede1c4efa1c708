package downloads

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"gamearr/internal/logging"
	"gamearr/internal/matching"
	"gamearr/internal/services"
	"gamearr/internal/store"
	"gamearr/internal/torrents"
)

// Summary reports what one reconciliation pass did.
type Summary struct {
	Checked          int  `json:"checked"`
	Matched          int  `json:"matched"`
	HashesDiscovered int  `json:"hashes_discovered"`
	Completed        int  `json:"completed"`
	Failed           int  `json:"failed"`
	Downloading      int  `json:"downloading"`
	Skipped          bool `json:"skipped,omitempty"`
}

// Reconcile runs one pass: list the client's torrents, match every active
// release, persist hashes and status transitions, then mark completed games
// downloaded, assign their library and notify. A pass requested while
// another is running is skipped. A listing failure aborts the pass and is
// returned so the caller can track connectivity; writes already applied by
// an aborted pass are kept.
func (s *Service) Reconcile(ctx context.Context) (Summary, error) {
	if !s.reconcileMu.TryLock() {
		s.logger.Info("reconciliation already running; skipping pass",
			logging.String(logging.FieldEventType, "reconcile_skipped"),
		)
		return Summary{Skipped: true}, nil
	}
	defer s.reconcileMu.Unlock()

	correlationID := uuid.NewString()
	ctx = services.WithRequestID(ctx, correlationID)
	logger := s.logger.With(logging.String(logging.FieldCorrelationID, correlationID))
	start := s.clock.Now()

	if !s.client.Configured() {
		return Summary{}, services.Wrap(services.ErrConfiguration, "downloads", "reconcile", "download client is not configured", nil)
	}

	list, err := s.client.ListTorrents(ctx, "")
	if err != nil {
		s.metrics.ObserveReconcile(s.clock.Now().Sub(start), 0, err)
		if services.Kind(err) == "unknown" {
			err = services.Wrap(services.ErrExternalClient, "downloads", "list torrents", "", err)
		}
		return Summary{}, err
	}

	releases, err := s.store.ActiveReleases(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load active releases: %w", err)
	}
	summary := Summary{Checked: len(releases)}
	if len(releases) == 0 {
		s.metrics.ObserveReconcile(s.clock.Now().Sub(start), 0, nil)
		logger.Debug("no active releases", logging.Int("torrents", len(list)))
		return summary, nil
	}

	games, err := s.store.GetGames(ctx, gameIDs(releases))
	if err != nil {
		return summary, fmt.Errorf("load games: %w", err)
	}
	libraries, err := s.store.ListLibraries(ctx)
	if err != nil {
		logger.Debug("library listing failed; using global category", logging.Error(err))
		libraries = nil
	}
	globalCategory := s.settings.DownloadCategory(ctx)

	observations := make([]Observation, 0, len(releases))
	for _, rel := range releases {
		category := categoryFor(games[rel.GameID], libraries, globalCategory)
		result, ok := s.matcher.Match(candidateFor(rel), list, category)
		if !ok {
			continue
		}
		observations = append(observations, Observation{Release: rel, Match: result})
	}
	summary.Matched = len(observations)

	plan := BuildWritePlan(observations)
	superseded, err := s.applyHashWrites(ctx, logger, plan.HashWrites)
	if err != nil {
		s.metrics.ObserveReconcile(s.clock.Now().Sub(start), summary.Checked, err)
		return summary, err
	}
	plan = plan.Without(superseded)
	transitions := plan.Transitions()
	summary.HashesDiscovered = len(plan.HashWrites)
	summary.Completed = transitions[store.ReleaseCompleted]
	summary.Failed = transitions[store.ReleaseFailed]
	summary.Downloading = transitions[store.ReleaseDownloading]

	if err := s.applyPlan(ctx, logger, plan, games, libraries); err != nil {
		s.metrics.ObserveReconcile(s.clock.Now().Sub(start), summary.Checked, err)
		return summary, err
	}
	for status, count := range transitions {
		s.metrics.RecordTransitions(string(status), count)
	}
	active := summary.Checked - summary.Completed - summary.Failed
	s.metrics.ObserveReconcile(s.clock.Now().Sub(start), active, nil)

	attrs := []logging.Attr{
		logging.Int("checked", summary.Checked),
		logging.Int("matched", summary.Matched),
		logging.Int("hashes_discovered", summary.HashesDiscovered),
		logging.Int("completed", summary.Completed),
		logging.Int("failed", summary.Failed),
		logging.Int("downloading", summary.Downloading),
	}
	if plan.Empty() {
		logger.Debug("reconciliation pass complete", logging.Args(attrs...)...)
	} else {
		logger.Info("reconciliation pass complete", logging.Args(attrs...)...)
	}
	return summary, nil
}

// applyHashWrites stores newly learned hashes one release at a time. It
// returns the releases whose row already holds a different hash, typically
// written by hash discovery after this pass loaded its releases.
func (s *Service) applyHashWrites(ctx context.Context, logger *slog.Logger, writes []HashWrite) (map[int64]struct{}, error) {
	var superseded map[int64]struct{}
	for _, write := range writes {
		applied, err := s.store.SetReleaseHash(ctx, write.ReleaseID, write.Hash, write.Status)
		if err != nil {
			return superseded, fmt.Errorf("update release %d: %w", write.ReleaseID, err)
		}
		if applied {
			continue
		}
		logger.Debug("release hash already recorded; keeping it",
			logging.Int64(logging.FieldReleaseID, write.ReleaseID),
			logging.String("matched_hash", write.Hash),
		)
		if superseded == nil {
			superseded = make(map[int64]struct{})
		}
		superseded[write.ReleaseID] = struct{}{}
	}
	return superseded, nil
}

func (s *Service) applyPlan(ctx context.Context, logger *slog.Logger, plan WritePlan, games map[int64]*store.Game, libraries []*store.Library) error {
	statuses := make([]string, 0, len(plan.StatusWrites))
	for status := range plan.StatusWrites {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		ids := plan.StatusWrites[store.ReleaseStatus(status)]
		if _, err := s.store.BatchUpdateReleaseStatus(ctx, ids, store.ReleaseStatus(status)); err != nil {
			return fmt.Errorf("update %d releases to %s: %w", len(ids), status, err)
		}
	}

	if len(plan.CompletedGames) > 0 {
		if _, err := s.store.BatchUpdateGameStatus(ctx, plan.CompletedGames, store.GameDownloaded); err != nil {
			return fmt.Errorf("mark games downloaded: %w", err)
		}
		for _, gameID := range plan.CompletedGames {
			game := games[gameID]
			if game == nil {
				continue
			}
			s.assignLibrary(ctx, logger, game, libraries)
			logger.Info("game downloaded",
				logging.String(logging.FieldEventType, "game_downloaded"),
				logging.Int64(logging.FieldGameID, gameID),
				logging.String("title", game.Title),
			)
			if err := s.notifier.NotifyDownloadCompleted(ctx, game.Title, game.Platform); err != nil {
				logging.WarnWithContext(logger, "download notification failed", "notification_failed",
					logging.Int64(logging.FieldGameID, gameID),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "run `gamearr test-notify` to check the ntfy topic"),
					logging.String(logging.FieldImpact, "game status is updated; only the notification was lost"),
				)
			}
		}
	}

	for _, retag := range plan.Retags {
		tags := torrents.SubmissionTags(s.marker, retag.GameID)
		if err := s.client.AddTags(ctx, []string{retag.Hash}, tags); err != nil {
			logger.Debug("retag failed",
				logging.Int64(logging.FieldReleaseID, retag.ReleaseID),
				logging.String(logging.FieldTorrentHash, retag.Hash),
				logging.Error(err),
			)
			continue
		}
		logger.Debug("tagged torrent matched by name",
			logging.Int64(logging.FieldReleaseID, retag.ReleaseID),
			logging.String(logging.FieldTorrentHash, retag.Hash),
		)
	}
	return nil
}

func candidateFor(rel *store.Release) matching.Candidate {
	return matching.Candidate{
		ID:     rel.ID,
		GameID: rel.GameID,
		Title:  rel.Title,
		Size:   rel.Size,
		Hash:   rel.TorrentHash,
	}
}

// categoryFor mirrors categoryForGame using the libraries already loaded for
// the pass.
func categoryFor(game *store.Game, libraries []*store.Library, global string) string {
	if game != nil && game.LibraryID != nil {
		for _, lib := range libraries {
			if lib.ID == *game.LibraryID {
				if category := strings.TrimSpace(lib.DownloadCategory); category != "" {
					return category
				}
				break
			}
		}
	}
	return global
}

func gameIDs(releases []*store.Release) []int64 {
	seen := make(map[int64]struct{}, len(releases))
	ids := make([]int64, 0, len(releases))
	for _, rel := range releases {
		if _, ok := seen[rel.GameID]; ok {
			continue
		}
		seen[rel.GameID] = struct{}{}
		ids = append(ids, rel.GameID)
	}
	return ids
}
