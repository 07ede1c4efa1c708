package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bracketReplacer = strings.NewReplacer(
		"[", " ", "]", " ",
		"(", " ", ")", " ",
		"{", " ", "}", " ",
	)
	archiveExtension = regexp.MustCompile(`\.(torrent|zip|rar|7z|iso|nfo|tar|gz)$`)
	separatorRun     = regexp.MustCompile(`[._\-]+`)
	disallowedChars  = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// minTokenLength drops single-character noise such as stray "v" or "x".
const minTokenLength = 2

// Normalize lowercases a release or torrent name and strips punctuation,
// brackets, separators and a trailing archive extension so two spellings of
// the same title compare equal. Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	out := strings.ToLower(foldDiacritics(name))
	out = bracketReplacer.Replace(out)
	out = archiveExtension.ReplaceAllString(strings.TrimSpace(out), "")
	out = separatorRun.ReplaceAllString(out, " ")
	out = disallowedChars.ReplaceAllString(out, "")
	out = whitespaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// TokenSet is a deduplicated set of significant words.
type TokenSet map[string]struct{}

// Tokenize normalizes name and returns its words of at least two characters.
func Tokenize(name string) TokenSet {
	set := make(TokenSet)
	for _, word := range strings.Fields(Normalize(name)) {
		if len(word) < minTokenLength {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

// Has reports whether the set contains token.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

func foldDiacritics(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return folded
}
