package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/desertthunder/setlist/internal/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func combined(songs []models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Combined
	}
	return out
}

func assertCombined(t *testing.T, got []models.Song, want []string) {
	t.Helper()
	lines := combined(got)
	if len(lines) != len(want) {
		t.Fatalf("got %d songs %q, want %d %q", len(lines), lines, len(want), want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("song %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestStructuredData(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{ not json</script>
<script type="application/ld+json">{"@type":"WebSite","name":"Radio"}</script>
<script type="application/ld+json">{
  "@type": "MusicPlaylist",
  "track": [
    {"name": "Karma Police", "byArtist": {"name": "Radiohead"}},
    {"name": "Lean On", "byArtist": [{"name": "Major Lazer"}, {"name": "DJ Snake"}]},
    {"name": "  Intro  "},
    {"name": "", "byArtist": {"name": "Nobody"}},
    {"name": "Login", "byArtist": {"name": ""}}
  ]
}</script>
</head><body></body></html>`

	got := StructuredData(mustDoc(t, html), DefaultFilter())
	assertCombined(t, got, []string{
		"Radiohead - Karma Police",
		"Major Lazer, DJ Snake - Lean On",
		"Intro",
	})

	if got[0].Artist != "Radiohead" || got[0].Title != "Karma Police" {
		t.Errorf("unexpected fields: %+v", got[0])
	}
}

func TestStructuredDataMalformedTrack(t *testing.T) {
	html := `<html><head>
<script type="application/ld+json">{
  "@type": "MusicPlaylist",
  "track": [
    {"name": "Karma Police", "byArtist": {"name": "Radiohead"}},
    {"name": 2},
    {"name": {"@value": "Creep"}, "byArtist": {"name": "Radiohead"}},
    "Paranoid Android",
    {"name": "Song 2", "byArtist": {"name": "Blur"}}
  ]
}</script>
</head><body><h2>Site News</h2></body></html>`

	doc := mustDoc(t, html)
	assertCombined(t, StructuredData(doc, DefaultFilter()), []string{
		"Radiohead - Karma Police",
		"Blur - Song 2",
	})

	songs, name := Cascade(doc, DefaultStrategies(), DefaultFilter())
	if name != StrategyStructuredData {
		t.Errorf("strategy = %q, want %q", name, StrategyStructuredData)
	}
	assertCombined(t, songs, []string{"Radiohead - Karma Police", "Blur - Song 2"})
}

func TestTables(t *testing.T) {
	t.Run("four columns strip rank artifacts", func(t *testing.T) {
		html := `<table>
<tr><th>#</th><th>Artist</th><th>Title</th><th>Weeks</th></tr>
<tr><td>1</td><td>1 – Radiohead</td><td>Karma Police</td><td>3</td></tr>
<tr><td>2</td><td>Blur</td><td>Song 2</td><td>1</td></tr>
<tr><td>3</td><td></td><td>Orphan</td><td>1</td></tr>
</table>`

		got := Tables(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Radiohead - Karma Police", "Blur - Song 2"})
		if got[0].Artist != "Radiohead" {
			t.Errorf("artist = %q, want Radiohead", got[0].Artist)
		}
	})

	t.Run("two and three columns", func(t *testing.T) {
		html := `<table>
<tr><td>Blur</td><td>Parklife</td></tr>
<tr><td>Pulp</td><td>Common People</td><td>1995</td></tr>
<tr><td>only one cell</td></tr>
<tr><td>a</td><td>b</td><td>c</td><td>d</td><td>e</td></tr>
</table>`

		got := Tables(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Blur - Parklife", "Pulp - Common People"})
	})

	t.Run("hyphenated artist kept", func(t *testing.T) {
		html := `<table><tr><td>4</td><td>Jay-Z</td><td>99 Problems</td><td>-</td></tr></table>`
		got := Tables(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Jay-Z - 99 Problems"})
	})
}

func TestKnownClasses(t *testing.T) {
	t.Run("sibling artist", func(t *testing.T) {
		html := `<div>
<div class="track-title">Song 2</div><div class="track-artist">Blur</div>
</div>`
		got := KnownClasses(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Blur - Song 2"})
	})

	t.Run("chart results heading", func(t *testing.T) {
		html := `<ul>
<li class="o-chart-results-list__item"><h3>Flowers</h3><span>Miley Cyrus</span></li>
<li class="o-chart-results-list__item"><h3>Kill Bill</h3><span>SZA</span></li>
</ul>`
		got := KnownClasses(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Miley Cyrus - Flowers", "SZA - Kill Bill"})
	})

	t.Run("track position rows join artists", func(t *testing.T) {
		html := `<table><tbody>
<tr data-track-position="1">
  <td class="artist"><a href="/a/1">Major Lazer</a><a href="/a/2">DJ Snake</a></td>
  <td class="trackTitle"><span>Lean On</span></td>
</tr>
</tbody></table>`
		got := KnownClasses(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Major Lazer, DJ Snake - Lean On"})
	})

	t.Run("title without artist", func(t *testing.T) {
		html := `<div><span class="song-title">Windowlicker</span></div>`
		got := KnownClasses(mustDoc(t, html), DefaultFilter())
		assertCombined(t, got, []string{"Windowlicker"})
	})
}

func TestListItems(t *testing.T) {
	html := `<ul>
<li>Home</li>
<li>Radiohead - Karma Police</li>
<li>A - B - C</li>
<li>Sigur Rós - Hoppípolla</li>
<li>Login - now</li>
</ul>
<ol><li>Blur - Song 2</li></ol>`

	got := ListItems(mustDoc(t, html), DefaultFilter())
	assertCombined(t, got, []string{
		"Radiohead - Karma Police",
		"Sigur Rós - Hoppípolla",
		"Blur - Song 2",
	})
}

// The longer side is always read as the title, so long artist names come out swapped.
func TestListItemsLongArtistLimitation(t *testing.T) {
	html := `<ul><li>Red Hot Chili Peppers - Otherside</li></ul>`

	got := ListItems(mustDoc(t, html), DefaultFilter())
	if len(got) != 1 {
		t.Fatalf("expected one song, got %d", len(got))
	}
	if got[0].Title != "Red Hot Chili Peppers" || got[0].Artist != "Otherside" {
		t.Errorf("heuristic changed: %+v", got[0])
	}
}

func TestHeadings(t *testing.T) {
	html := `<body>
<h2>Song 2</h2><p>Blur</p>
<h3>Parklife</h3>
<h4>Menu</h4>
</body>`

	got := Headings(mustDoc(t, html), DefaultFilter())
	assertCombined(t, got, []string{"Blur - Song 2", "Parklife"})
}

func TestCascade(t *testing.T) {
	t.Run("first success short-circuits", func(t *testing.T) {
		var calls []string
		stub := func(name string, songs ...models.Song) Strategy {
			return Strategy{Name: name, Extract: func(*goquery.Document, *Filter) []models.Song {
				calls = append(calls, name)
				return songs
			}}
		}

		strategies := []Strategy{
			stub("empty"),
			stub("winner", models.NewSong("Karma Police", "Radiohead")),
			stub("later", models.NewSong("Song 2", "Blur")),
		}

		songs, name := Cascade(mustDoc(t, "<p></p>"), strategies, DefaultFilter())
		if name != "winner" {
			t.Errorf("strategy = %q, want winner", name)
		}
		assertCombined(t, songs, []string{"Radiohead - Karma Police"})
		if strings.Join(calls, ",") != "empty,winner" {
			t.Errorf("unexpected calls: %v", calls)
		}
	})

	t.Run("structured data beats table", func(t *testing.T) {
		html := `<html><head><script type="application/ld+json">
{"@type":"MusicPlaylist","track":[{"name":"Karma Police","byArtist":{"name":"Radiohead"}}]}
</script></head><body>
<table><tr><td>Blur</td><td>Song 2</td></tr><tr><td>Pulp</td><td>Disco 2000</td></tr></table>
</body></html>`

		songs, name := Cascade(mustDoc(t, html), DefaultStrategies(), DefaultFilter())
		if name != StrategyStructuredData {
			t.Errorf("strategy = %q, want %q", name, StrategyStructuredData)
		}
		assertCombined(t, songs, []string{"Radiohead - Karma Police"})
	})

	t.Run("nothing found", func(t *testing.T) {
		songs, name := Cascade(mustDoc(t, "<p>Login</p>"), DefaultStrategies(), DefaultFilter())
		if len(songs) != 0 || name != "" {
			t.Errorf("expected no songs, got %q from %q", combined(songs), name)
		}
	})
}
