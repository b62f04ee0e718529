package scraper

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/desertthunder/setlist/internal/models"
)

// ExtractFunc pulls candidate songs out of a parsed document, admitting only those f accepts.
type ExtractFunc func(doc *goquery.Document, f *Filter) []models.Song

// Strategy is one named extraction heuristic.
type Strategy struct {
	Name    string
	Extract ExtractFunc
}

// Strategy names, in cascade order.
const (
	StrategyStructuredData = "structured-data"
	StrategyTable          = "table"
	StrategyKnownClass     = "known-class"
	StrategyListItem       = "list-item"
	StrategyHeading        = "heading"
)

// DefaultStrategies returns the extraction heuristics from most to least reliable.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyStructuredData, Extract: StructuredData},
		{Name: StrategyTable, Extract: Tables},
		{Name: StrategyKnownClass, Extract: KnownClasses},
		{Name: StrategyListItem, Extract: ListItems},
		{Name: StrategyHeading, Extract: Headings},
	}
}

// Cascade runs strategies in order and returns the songs of the first one that finds any, with its name.
// Strategies after the first success are not invoked.
func Cascade(doc *goquery.Document, strategies []Strategy, f *Filter) ([]models.Song, string) {
	for _, s := range strategies {
		if songs := s.Extract(doc, f); len(songs) > 0 {
			return songs, s.Name
		}
	}
	return nil, ""
}

type ldPlaylist struct {
	Type  any               `json:"@type"`
	Track []json.RawMessage `json:"track"`
}

type ldTrack struct {
	Name     string          `json:"name"`
	ByArtist json.RawMessage `json:"byArtist"`
}

type ldPerson struct {
	Name string `json:"name"`
}

// artistName reads byArtist as either a single object or a list of objects.
func (t ldTrack) artistName() string {
	if len(t.ByArtist) == 0 {
		return ""
	}

	var one ldPerson
	if err := json.Unmarshal(t.ByArtist, &one); err == nil {
		return strings.TrimSpace(one.Name)
	}

	var many []ldPerson
	if err := json.Unmarshal(t.ByArtist, &many); err != nil {
		return ""
	}
	names := make([]string, 0, len(many))
	for _, p := range many {
		if n := strings.TrimSpace(p.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

// StructuredData reads schema.org MusicPlaylist JSON-LD blocks. A block that fails to decode is skipped on its own,
// as is a track entry that fails to decode.
func StructuredData(doc *goquery.Document, f *Filter) []models.Song {
	var songs []models.Song
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var pl ldPlaylist
		if err := json.Unmarshal([]byte(s.Text()), &pl); err != nil {
			return
		}
		if typ, _ := pl.Type.(string); typ != "MusicPlaylist" {
			return
		}
		for _, raw := range pl.Track {
			var track ldTrack
			if err := json.Unmarshal(raw, &track); err != nil {
				continue
			}
			title := strings.TrimSpace(track.Name)
			if title == "" {
				continue
			}
			song := models.NewSong(title, track.artistName())
			if f.Valid(song.Combined) {
				songs = append(songs, song)
			}
		}
	})
	return songs
}

// rankArtifact matches a leading rank and dash left in chart artist cells, e.g. "1 – ".
var rankArtifact = regexp.MustCompile(`^\s*(?:\d+\.?\s*)?(?:[–—]|-\s)\s*`)

func cleanArtistCell(text string) string {
	text = rankArtifact.ReplaceAllString(text, "")
	return strings.TrimSpace(strings.ReplaceAll(text, "–", ""))
}

// Tables reads table rows: four cells are (rank, artist, title, other), two or three cells are (artist, title).
func Tables(doc *goquery.Document, f *Filter) []models.Song {
	var songs []models.Song
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")

			var artist, title string
			switch cells.Length() {
			case 4:
				artist = cleanArtistCell(cells.Eq(1).Text())
				title = strings.TrimSpace(cells.Eq(2).Text())
			case 2, 3:
				artist = strings.TrimSpace(cells.Eq(0).Text())
				title = strings.TrimSpace(cells.Eq(1).Text())
			default:
				return
			}

			if artist == "" || title == "" {
				return
			}
			if song := models.NewSong(title, artist); f.Valid(song.Combined) {
				songs = append(songs, song)
			}
		})
	})
	return songs
}

// trackPositionSelector marks streaming-service style rows carrying artist links and a title span.
const trackPositionSelector = "[data-track-position]"

// knownSelectors are class and attribute patterns used by popular chart and discography sites, probed in order.
var knownSelectors = []string{
	".tracklist_track_title",
	".song-title",
	".track-title",
	".playlist-item",
	".song",
	".track",
	trackPositionSelector,
	".o-chart-results-list__item > h3",
}

// KnownClasses probes [knownSelectors]. The title is the element text; the artist is the next sibling's
// text, or else a nested element whose class mentions "artist".
func KnownClasses(doc *goquery.Document, f *Filter) []models.Song {
	var songs []models.Song
	for _, selector := range knownSelectors {
		doc.Find(selector).Each(func(_ int, el *goquery.Selection) {
			var title, artist string
			if selector == trackPositionSelector {
				title, artist = trackPositionRow(el)
			} else {
				title = strings.TrimSpace(el.Text())
				artist = siblingOrNestedArtist(el)
			}

			if title == "" {
				return
			}
			if song := models.NewSong(title, artist); f.Valid(song.Combined) {
				songs = append(songs, song)
			}
		})
	}
	return songs
}

func siblingOrNestedArtist(el *goquery.Selection) string {
	if next := el.Next(); next.Length() > 0 {
		return strings.TrimSpace(next.Text())
	}
	return strings.TrimSpace(el.Find(".artist, .track-artist, [class*='artist']").First().Text())
}

func trackPositionRow(row *goquery.Selection) (title, artist string) {
	names := row.Find("td.artist a, [class*='artist'] a").Map(func(_ int, a *goquery.Selection) string {
		return strings.TrimSpace(a.Text())
	})
	artist = strings.Join(names, ", ")
	title = strings.TrimSpace(row.Find("td.trackTitle span, [class*='trackTitle'] span").Text())
	return title, artist
}

// ListItems reads "Artist - Title" list items containing exactly one hyphen.
//
// The longer side is taken as the title. This guesses wrong for long artist names and is kept as-is.
func ListItems(doc *goquery.Document, f *Filter) []models.Song {
	var songs []models.Song
	doc.Find("ul li, ol li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if strings.Count(text, "-") != 1 {
			return
		}

		first, second, _ := strings.Cut(text, "-")
		first, second = strings.TrimSpace(first), strings.TrimSpace(second)
		if first == "" || second == "" || !f.Valid(text) {
			return
		}

		if utf8.RuneCountInString(first) > utf8.RuneCountInString(second) {
			songs = append(songs, models.NewSong(first, second))
		} else {
			songs = append(songs, models.NewSong(second, first))
		}
	})
	return songs
}

// Headings reads h2, h3 and h4 text as titles, with an immediately following p, span or div as the artist.
func Headings(doc *goquery.Document, f *Filter) []models.Song {
	var songs []models.Song
	doc.Find("h3, h4, h2").Each(func(_ int, h *goquery.Selection) {
		title := strings.TrimSpace(h.Text())
		if title == "" {
			return
		}

		var artist string
		if next := h.Next(); next.Is("p, span, div") {
			artist = strings.TrimSpace(next.Text())
		}

		if song := models.NewSong(title, artist); f.Valid(song.Combined) {
			songs = append(songs, song)
		}
	})
	return songs
}
