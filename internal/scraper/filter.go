package scraper

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/setlist/internal/shared"
)

// DefaultMinLength is the shortest combined string accepted as a song.
const DefaultMinLength = 3

var (
	// DefaultNavigationKeywords are prefixes of site navigation and legal boilerplate.
	DefaultNavigationKeywords = []string{
		"menu", "navigation", "header", "footer", "copyright",
		"privacy", "terms", "login", "signup", "subscribe",
	}

	// DefaultChromePhrases are prefixes of chart and radio site chrome seen in the wild.
	DefaultChromePhrases = []string{
		"End Charts", "Chart Beat", "Features", "Noticias",
		"Get Up", "Honda Music", "Listen Live", "Buy Tickets",
	}

	letterPattern = regexp.MustCompile(`[a-zA-Z]`)
	jsonPattern   = regexp.MustCompile(`^{.*}$`)
	tagPattern    = regexp.MustCompile(`^<.*>$`)
)

// Filter decides whether a candidate string looks like a song.
//
// The keyword tables are plain data; extend them through [NewFilter] or the [filter] config section.
type Filter struct {
	MinLength          int
	NavigationKeywords []string
	ChromePhrases      []string

	prefixes []string
}

// NewFilter builds a [Filter] from cfg, using the defaults for any zero or empty field.
func NewFilter(cfg shared.FilterConfig) *Filter {
	f := &Filter{
		MinLength:          cfg.MinLength,
		NavigationKeywords: cfg.NavigationKeywords,
		ChromePhrases:      cfg.ChromePhrases,
	}
	if f.MinLength <= 0 {
		f.MinLength = DefaultMinLength
	}
	if len(f.NavigationKeywords) == 0 {
		f.NavigationKeywords = DefaultNavigationKeywords
	}
	if len(f.ChromePhrases) == 0 {
		f.ChromePhrases = DefaultChromePhrases
	}

	for _, list := range [][]string{f.NavigationKeywords, f.ChromePhrases} {
		for _, p := range list {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				f.prefixes = append(f.prefixes, p)
			}
		}
	}
	return f
}

// DefaultFilter returns a [Filter] using only the built-in tables.
func DefaultFilter() *Filter {
	return NewFilter(shared.FilterConfig{})
}

// Valid reports whether text passes every rule:
//   - at least MinLength characters
//   - at least one ASCII letter
//   - no ".css" or ".js" fragment
//   - not a whole-string JSON object or HTML tag
//   - no navigation keyword or chrome phrase prefix, case-insensitively
func (f *Filter) Valid(text string) bool {
	if utf8.RuneCountInString(text) < f.MinLength {
		return false
	}
	if !letterPattern.MatchString(text) {
		return false
	}
	if strings.Contains(text, ".css") || strings.Contains(text, ".js") {
		return false
	}
	if jsonPattern.MatchString(text) || tagPattern.MatchString(text) {
		return false
	}

	lower := strings.ToLower(text)
	for _, p := range f.prefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return true
}
