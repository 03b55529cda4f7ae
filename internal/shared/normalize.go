package shared

import (
	"regexp"
	"strings"
)

// trackKeySeparator joins the normalized title and artist halves of a track key.
const trackKeySeparator = "|||"

var (
	featBracketRe = regexp.MustCompile(`\s*[(\[](feat\.?|ft\.?|featuring).*?[)\]]`)
	featTailRe    = regexp.MustCompile(`\s*(feat\.?|ft\.?|featuring)\s+.*$`)
	apostropheRe  = regexp.MustCompile("[’`]")
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a title or artist string for fuzzy comparison.
//
// Lowercases and trims, strips bracketed and bare trailing featuring credits,
// unifies apostrophe variants, and collapses whitespace runs. The same function
// backs both search matching and duplicate detection; the two must never diverge.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = featBracketRe.ReplaceAllString(s, "")
	s = featTailRe.ReplaceAllString(s, "")
	s = apostropheRe.ReplaceAllString(s, "'")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TrackKey builds the normalized identity key for a title/artist pair.
//
// Used for identifier-less duplicate detection against playlist contents.
func TrackKey(title, artist string) string {
	return Normalize(title) + trackKeySeparator + Normalize(artist)
}
