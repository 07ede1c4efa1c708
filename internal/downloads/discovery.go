package downloads

import (
	"context"
	"strings"
	"time"

	"gamearr/internal/logging"
	"gamearr/internal/matching"
	"gamearr/internal/metrics"
	"gamearr/internal/store"
	"gamearr/internal/torrents"
)

const (
	// RecentWindow bounds how long ago a torrent may have been added to be
	// considered during hash discovery.
	RecentWindow = 60 * time.Second

	discoveryNameOverlap = 0.5
)

// startDiscovery polls the client for the torrent created by a direct URL
// submission. It runs on the service context so only Close stops it.
func (s *Service) startDiscovery(rel *store.Release, category string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.discoverHash(s.baseCtx, rel, category)
	}()
}

func (s *Service) discoverHash(ctx context.Context, rel *store.Release, category string) {
	logger := s.logger.With(
		logging.Int64(logging.FieldReleaseID, rel.ID),
		logging.Int64(logging.FieldGameID, rel.GameID),
	)
	candidate := matching.Candidate{ID: rel.ID, GameID: rel.GameID, Title: rel.Title, Size: rel.Size}

	for attempt, delay := range s.delays {
		if err := s.clock.Sleep(ctx, delay); err != nil {
			logger.Debug("hash discovery stopped", logging.Int("attempt", attempt+1), logging.Error(err))
			return
		}

		list, err := s.client.ListTorrents(ctx, "")
		if err != nil {
			s.metrics.RecordDiscovery(metrics.DiscoveryError)
			logger.Debug("hash discovery listing failed",
				logging.Int("attempt", attempt+1),
				logging.Error(err),
			)
			continue
		}

		found, method, ok := discoverTorrent(candidate, list, category, s.clock.Now())
		if !ok {
			logger.Debug("torrent not visible yet", logging.Int("attempt", attempt+1))
			continue
		}

		hash := found.Hash
		applied, err := s.store.SetReleaseHash(ctx, rel.ID, hash, nil)
		if err != nil {
			logging.WarnWithContext(logger, "failed to store discovered hash", "hash_store_failed",
				logging.Error(err),
				logging.String(logging.FieldTorrentHash, hash),
				logging.String(logging.FieldImpact, "reconciliation will retry matching on its next pass"),
			)
			s.metrics.RecordDiscovery(metrics.DiscoveryError)
			return
		}
		s.metrics.RecordDiscovery(metrics.DiscoveryFound)
		if !applied {
			logger.Debug("hash already recorded", logging.String("discovered_hash", hash))
			return
		}
		logger.Info("torrent hash discovered",
			logging.String(logging.FieldEventType, "hash_discovered"),
			logging.String(logging.FieldTorrentHash, hash),
			logging.String("method", method),
			logging.Int("attempt", attempt+1),
		)
		return
	}

	s.metrics.RecordDiscovery(metrics.DiscoveryMissing)
	logging.WarnWithContext(logger, "torrent hash not discovered", "hash_discovery_exhausted",
		logging.Int("attempts", len(s.delays)),
		logging.String(logging.FieldErrorHint, "check the download client category and tags"),
		logging.String(logging.FieldImpact, "reconciliation keeps matching the release by tag and name"),
	)
}

// discoverTorrent picks the torrent most likely created by a submission just
// made for c. Only torrents in category added within RecentWindow of now are
// considered: a game tag match wins, then the first name overlap of at least
// one half, then a lone recent torrent by elimination.
func discoverTorrent(c matching.Candidate, list []torrents.Snapshot, category string, now time.Time) (torrents.Snapshot, string, bool) {
	recent := make([]torrents.Snapshot, 0, len(list))
	for _, t := range list {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		if !t.AddedWithin(now, RecentWindow) {
			continue
		}
		recent = append(recent, t)
	}
	if len(recent) == 0 {
		return torrents.Snapshot{}, "", false
	}

	if result, ok := matching.MatchByTag(c, recent); ok {
		return result.Torrent, result.Method, true
	}

	title := matching.Tokenize(c.Title)
	for _, t := range recent {
		if matching.TokenOverlap(title, matching.Tokenize(t.Name)) >= discoveryNameOverlap {
			return t, "name", true
		}
	}

	if len(recent) == 1 {
		return recent[0], "elimination", true
	}
	return torrents.Snapshot{}, "", false
}
