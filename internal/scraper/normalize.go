package scraper

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/desertthunder/setlist/internal/models"
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey folds s to the key used for deduplication: accents stripped,
// lowercased, every run of characters outside [a-z0-9] collapsed to one space, trimmed.
//
// NormalizeKey(NormalizeKey(s)) == NormalizeKey(s).
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	key := strings.ToLower(b.String())
	key = nonAlnumRun.ReplaceAllString(key, " ")
	return strings.TrimSpace(key)
}

// Dedupe keeps the first song seen for each [NormalizeKey] of its combined form, preserving discovery order.
func Dedupe(songs []models.Song) []models.Song {
	seen := make(map[string]struct{}, len(songs))
	out := make([]models.Song, 0, len(songs))
	for _, s := range songs {
		key := NormalizeKey(s.Combined)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
