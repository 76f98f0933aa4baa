package metadata

import (
	"fmt"
	"strings"
)

// MediaType is the concrete kind of a catalog item.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType parses a movie or tv media type.
func ParseMediaType(s string) (MediaType, error) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, nil
	case MediaTypeTV:
		return MediaTypeTV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMediaType, s)
	}
}

// Valid reports whether m is movie or tv.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// SearchFilter narrows a search to one media type or to both.
type SearchFilter string

const (
	FilterMovie SearchFilter = "movie"
	FilterTV    SearchFilter = "tv"
	FilterAll   SearchFilter = "all"
)

// ParseSearchFilter parses a media type filter. An empty string is movie.
func ParseSearchFilter(s string) (SearchFilter, error) {
	switch SearchFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterMovie:
		return FilterMovie, nil
	case FilterTV:
		return FilterTV, nil
	case FilterAll:
		return FilterAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// endpoint returns the search endpoint kind for the filter.
func (f SearchFilter) endpoint() string {
	switch f {
	case FilterTV:
		return "tv"
	case FilterAll:
		return "multi"
	default:
		return "movie"
	}
}

// fallbackType is the media type stamped on results that carry no tag.
func (f SearchFilter) fallbackType() MediaType {
	if f == FilterTV {
		return MediaTypeTV
	}
	return MediaTypeMovie
}

// SearchQuery is one issued search.
type SearchQuery struct {
	Text   string       `json:"text"`
	Filter SearchFilter `json:"filter"`
}

// MediaItem is a movie or series normalized from a catalog result.
type MediaItem struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	MediaType    MediaType `json:"mediaType"`
	PosterPath   *string   `json:"posterPath,omitempty"`
	ReleaseDate  string    `json:"releaseDate,omitempty"`
	ReleaseYear  string    `json:"releaseYear,omitempty"`
	VoteAverage  *float64  `json:"voteAverage,omitempty"`
	PosterURL    string    `json:"posterUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
}

// SelectedItem is the item the user picked, with its detail fields.
type SelectedItem struct {
	MediaItem
	Overview string   `json:"overview,omitempty"`
	Tagline  string   `json:"tagline,omitempty"`
	Status   string   `json:"status,omitempty"`
	Genres   []string `json:"genres"`
	Runtime  int      `json:"runtime,omitempty"`
}
