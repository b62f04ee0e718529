package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/setlist/internal/models"
)

var _ list.Item = songItem{}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song     models.Song
	position int
	excluded bool
}

func (i songItem) FilterValue() string { return i.song.Combined }
func (i songItem) Title() string {
	mark := "✓"
	if i.excluded {
		mark = "✗"
	}
	return fmt.Sprintf("%s %2d. %s", mark, i.position, i.song.Title)
}
func (i songItem) Description() string {
	if i.song.Artist == "" {
		return "unknown artist"
	}
	return i.song.Artist
}

func songItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s, position: i + 1}
	}
	return items
}

// includedSongs returns the songs of items not toggled off, in list order.
func includedSongs(items []list.Item) []models.Song {
	songs := make([]models.Song, 0, len(items))
	for _, it := range items {
		if s, ok := it.(songItem); ok && !s.excluded {
			songs = append(songs, s.song)
		}
	}
	return songs
}
