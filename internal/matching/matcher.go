package matching

import (
	"log/slog"
	"strings"

	"gamearr/internal/logging"
	"gamearr/internal/torrents"
)

// Confidence ranks how trustworthy a match is.
type Confidence string

const (
	ConfidenceExact  Confidence = "exact"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Match methods reported in Result.Method.
const (
	MethodHash       = "hash"
	MethodTag        = "tag"
	MethodTagAndName = "tag+name"
	MethodName       = "name+size"
)

const (
	tagDisambiguationThreshold = 0.5
	tagSizeBonus               = 0.2

	nameMinOverlap      = 0.6
	nameSizeBonus       = 0.3
	nameSizePenalty     = 0.2
	highScoreThreshold  = 0.9
	highOverlapRequired = 0.8
	mediumScoreMinimum  = 0.7
)

// Candidate is the subset of a tracked release the matcher needs.
type Candidate struct {
	ID     int64
	GameID int64
	Title  string
	Size   *int64
	Hash   string
}

// Result is a matched torrent with its confidence tier.
type Result struct {
	Torrent    torrents.Snapshot
	Confidence Confidence
	Method     string
}

// Matcher finds the torrent that belongs to a tracked release.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher constructs a matcher that logs tier decisions at debug level.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logging.NewComponentLogger(logger, "matcher")}
}

// Match returns the best torrent for the candidate. Tiers are tried in order:
// stored hash, game tag, then name and size within the category. An empty
// category leaves the name tier unrestricted. Low confidence results are
// never returned.
func (m *Matcher) Match(c Candidate, list []torrents.Snapshot, category string) (Result, bool) {
	logger := m.logger.With(
		logging.Int64(logging.FieldReleaseID, c.ID),
		logging.Int64(logging.FieldGameID, c.GameID),
	)

	if hash := strings.TrimSpace(c.Hash); hash != "" {
		for _, t := range list {
			if t.HashEquals(hash) {
				return Result{Torrent: t, Confidence: ConfidenceExact, Method: MethodHash}, true
			}
		}
		logger.Debug("stored hash not reported by client; falling back to tags",
			logging.String(logging.FieldTorrentHash, hash),
		)
	}

	if result, ok := MatchByTag(c, list); ok {
		return result, true
	}

	result, ok := matchByName(c, list, category)
	if !ok {
		return Result{}, false
	}
	if result.Confidence == ConfidenceLow {
		logger.Debug("discarding low confidence match",
			logging.String("torrent_name", result.Torrent.Name),
			logging.String(logging.FieldTorrentHash, result.Torrent.Hash),
		)
		return Result{}, false
	}
	logger.Debug("matched release by name",
		logging.String("torrent_name", result.Torrent.Name),
		logging.String("confidence", string(result.Confidence)),
	)
	return result, true
}

// MatchByTag applies the game tag tier on its own. A single tagged torrent
// wins outright; several are disambiguated by name and size.
func MatchByTag(c Candidate, list []torrents.Snapshot) (Result, bool) {
	tagged := TaggedFor(c.GameID, list)
	switch len(tagged) {
	case 0:
		return Result{}, false
	case 1:
		return Result{Torrent: tagged[0], Confidence: ConfidenceHigh, Method: MethodTag}, true
	}

	title := Tokenize(c.Title)
	bestScore := -1.0
	var best torrents.Snapshot
	for _, t := range tagged {
		score := TokenOverlap(title, Tokenize(t.Name))
		if SizesMatch(c.Size, t.Size) {
			score += tagSizeBonus
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	if bestScore < tagDisambiguationThreshold {
		return Result{}, false
	}
	return Result{Torrent: best, Confidence: ConfidenceHigh, Method: MethodTagAndName}, true
}

func matchByName(c Candidate, list []torrents.Snapshot, category string) (Result, bool) {
	title := Tokenize(c.Title)
	if len(title) == 0 {
		return Result{}, false
	}
	bestScore := -1.0
	bestOverlap := 0.0
	var best torrents.Snapshot
	for _, t := range list {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		overlap := TokenOverlap(title, Tokenize(t.Name))
		if overlap < nameMinOverlap {
			continue
		}
		score := overlap
		switch {
		case SizesMatch(c.Size, t.Size):
			score += nameSizeBonus
		case hasExpectedSize(c.Size):
			score -= nameSizePenalty
		}
		if score > bestScore {
			bestScore = score
			bestOverlap = overlap
			best = t
		}
	}
	if bestScore < 0 {
		return Result{}, false
	}
	return Result{Torrent: best, Confidence: classify(bestScore, bestOverlap), Method: MethodName}, true
}

func classify(score, overlap float64) Confidence {
	switch {
	case score >= highScoreThreshold && overlap >= highOverlapRequired:
		return ConfidenceHigh
	case score >= mediumScoreMinimum:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// TaggedFor returns the torrents whose first game tag names gameID.
func TaggedFor(gameID int64, list []torrents.Snapshot) []torrents.Snapshot {
	var out []torrents.Snapshot
	for _, t := range list {
		if id, ok := torrents.ParseGameID(t.Tags); ok && id == gameID {
			out = append(out, t)
		}
	}
	return out
}
