package downloads

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"gamearr/internal/logging"
	"gamearr/internal/store"
)

// assignLibrary places a completed game without a library into the best
// library for its platform. Failures are logged only.
func (s *Service) assignLibrary(ctx context.Context, logger *slog.Logger, game *store.Game, libraries []*store.Library) {
	if game.LibraryID != nil {
		return
	}
	lib := pickLibrary(game.Platform, libraries)
	if lib == nil {
		logger.Info("no library available for game",
			logging.Int64(logging.FieldGameID, game.ID),
			logging.String("platform", game.Platform),
			logging.String(logging.FieldErrorHint, "run `gamearr library add --default` to create a default library"),
		)
		return
	}
	if err := s.store.SetGameLibrary(ctx, game.ID, lib.ID); err != nil {
		logging.WarnWithContext(logger, "library assignment failed", "library_assign_failed",
			logging.Int64(logging.FieldGameID, game.ID),
			logging.Int64("library_id", lib.ID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "game stays without a library until assigned manually"),
		)
		return
	}
	id := lib.ID
	game.LibraryID = &id
	logger.Info("game assigned to library",
		logging.Int64(logging.FieldGameID, game.ID),
		logging.String("library", lib.Name),
	)
}

// pickLibrary prefers a library whose platform equals the game's platform
// ignoring case, then one whose platform fuzzily contains it (or the reverse),
// then the default library.
func pickLibrary(platform string, libraries []*store.Library) *store.Library {
	platform = strings.TrimSpace(platform)
	if platform != "" {
		for _, lib := range libraries {
			if strings.EqualFold(strings.TrimSpace(lib.Platform), platform) {
				return lib
			}
		}
		for _, lib := range libraries {
			libPlatform := strings.TrimSpace(lib.Platform)
			if libPlatform == "" {
				continue
			}
			if fuzzy.MatchNormalizedFold(platform, libPlatform) || fuzzy.MatchNormalizedFold(libPlatform, platform) {
				return lib
			}
		}
	}
	for _, lib := range libraries {
		if lib.IsDefault {
			return lib
		}
	}
	return nil
}
