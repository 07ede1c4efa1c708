package torrents

import (
	"encoding/base32"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

var btihPattern = regexp.MustCompile(`(?i)btih:([0-9a-f]{40}|[a-z2-7]{32})(?:[^0-9a-z]|$)`)

// IsMagnet reports whether the link is a magnet URI.
func IsMagnet(link string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(link)), "magnet:")
}

// MagnetHash extracts the v1 info hash from a magnet link as lowercase hex.
// Base32 hashes are converted to hex so they compare equal to the hashes the
// download client reports.
func MagnetHash(link string) (string, bool) {
	if !IsMagnet(link) {
		return "", false
	}
	decoded, err := url.QueryUnescape(strings.TrimSpace(link))
	if err != nil {
		decoded = link
	}
	match := btihPattern.FindStringSubmatch(decoded)
	if match == nil {
		return "", false
	}
	token := match[1]
	if len(token) == 40 {
		return strings.ToLower(token), true
	}
	raw, err := base32.StdEncoding.DecodeString(strings.ToUpper(token))
	if err != nil || len(raw) != 20 {
		return "", false
	}
	return hex.EncodeToString(raw), true
}
