// package models defines the data model for the setlist service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models in the setlist service.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Song is a single tracklist entry.
//
// Combined is the display and matching form: "Artist - Title", or Title alone when Artist is empty.
type Song struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Combined string `json:"combined"`
}

// NewSong builds a [Song], deriving Combined from artist and title.
func NewSong(title, artist string) Song {
	return Song{Title: title, Artist: artist, Combined: CombineSong(title, artist)}
}

// CombineSong returns the canonical "Artist - Title" form.
func CombineSong(title, artist string) string {
	if artist == "" {
		return title
	}
	return artist + " - " + title
}

// Result is the outcome of one extraction.
//
// Exactly one of Songs (non-empty) and Error is set.
type Result struct {
	Songs []Song `json:"songs"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`

	// Strategy names the extraction strategy that produced Songs.
	Strategy string `json:"-"`
	reason   error
}

// NewSuccess wraps songs in a successful [Result].
func NewSuccess(songs []Song, strategy string) *Result {
	return &Result{Songs: songs, Count: len(songs), Strategy: strategy}
}

// NewFailure builds a failed [Result] carrying message for the caller and reason for classification.
func NewFailure(reason error, message string) *Result {
	return &Result{Songs: []Song{}, Error: message, reason: reason}
}

// OK reports whether the result carries songs.
func (r *Result) OK() bool {
	return r.Error == "" && len(r.Songs) > 0
}

// Reason returns the sentinel error classifying a failed result, or nil on success.
func (r *Result) Reason() error {
	if r.OK() {
		return nil
	}
	return r.reason
}

// Lines returns the combined form of every song, in order.
func (r *Result) Lines() []string {
	lines := make([]string, len(r.Songs))
	for i, s := range r.Songs {
		lines[i] = s.Combined
	}
	return lines
}
