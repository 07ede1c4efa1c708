package torrents

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultMarker is the literal tag attached to every torrent gamearr submits.
const DefaultMarker = "gamearr"

const gameTagPrefix = "game-"

var gameTagPattern = regexp.MustCompile(`^game-(\d+)$`)

// GameTag returns the per-game tag for the given game id.
func GameTag(gameID int64) string {
	return gameTagPrefix + strconv.FormatInt(gameID, 10)
}

// SubmissionTags builds the comma-separated tag string attached on submission.
func SubmissionTags(marker string, gameID int64) string {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		marker = DefaultMarker
	}
	return marker + "," + GameTag(gameID)
}

// ParseGameID returns the game id carried by the first "game-{digits}" tag in
// a comma-separated tag string.
func ParseGameID(tags string) (int64, bool) {
	for _, tag := range strings.Split(tags, ",") {
		match := gameTagPattern.FindStringSubmatch(strings.TrimSpace(tag))
		if match == nil {
			continue
		}
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		return id, true
	}
	return 0, false
}

// HasGameTag reports whether the tag string already carries the tag for gameID.
func HasGameTag(tags string, gameID int64) bool {
	want := GameTag(gameID)
	for _, tag := range strings.Split(tags, ",") {
		if strings.TrimSpace(tag) == want {
			return true
		}
	}
	return false
}
