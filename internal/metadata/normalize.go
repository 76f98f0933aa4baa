package metadata

import (
	"math"
	"time"

	"github.com/cinematch/cinematch/internal/metadata/tmdb"
)

// Placeholders used when an item has no poster.
const (
	PlaceholderThumbnail = "https://via.placeholder.com/40x60?text=N/A"
	PlaceholderPoster    = "https://via.placeholder.com/200x300?text=N/A"
)

const dateLayout = "2006-01-02"

// toMediaItem normalizes a search or recommendation result. The API tag wins
// over fallback when it names a movie or series.
func (s *Service) toMediaItem(r tmdb.Result, fallback MediaType) MediaItem {
	mediaType := fallback
	if tagged := MediaType(r.MediaType); tagged.Valid() {
		mediaType = tagged
	}

	date := firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
	item := MediaItem{
		ID:          r.ID,
		Title:       firstNonEmpty(r.Title, r.Name),
		MediaType:   mediaType,
		PosterPath:  nonEmptyPath(r.PosterPath),
		ReleaseDate: date,
		ReleaseYear: releaseYear(date),
		VoteAverage: validRating(r.VoteAverage),
	}
	s.fillImages(&item)
	return item
}

// toSelectedItem normalizes a detail record. The media type always comes from
// the caller since detail responses carry no tag.
func (s *Service) toSelectedItem(d *tmdb.Details, mediaType MediaType) *SelectedItem {
	date := firstNonEmpty(d.ReleaseDate, d.FirstAirDate)
	selected := &SelectedItem{
		MediaItem: MediaItem{
			ID:          d.ID,
			Title:       firstNonEmpty(d.Title, d.Name),
			MediaType:   mediaType,
			PosterPath:  nonEmptyPath(d.PosterPath),
			ReleaseDate: date,
			ReleaseYear: releaseYear(date),
			VoteAverage: validRating(d.VoteAverage),
		},
		Overview: d.Overview,
		Tagline:  d.Tagline,
		Status:   d.Status,
		Genres:   make([]string, 0, len(d.Genres)),
		Runtime:  d.Runtime,
	}
	for _, g := range d.Genres {
		selected.Genres = append(selected.Genres, g.Name)
	}
	if selected.Runtime == 0 && len(d.EpisodeRunTime) > 0 {
		selected.Runtime = d.EpisodeRunTime[0]
	}
	s.fillImages(&selected.MediaItem)
	return selected
}

func (s *Service) fillImages(item *MediaItem) {
	if item.PosterPath == nil {
		item.PosterURL = PlaceholderPoster
		item.ThumbnailURL = PlaceholderThumbnail
		return
	}
	item.PosterURL = s.catalog.GetImageURL(*item.PosterPath, tmdb.ImageSizePoster)
	item.ThumbnailURL = s.catalog.GetImageURL(*item.PosterPath, tmdb.ImageSizeThumbnail)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonEmptyPath(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	path := *p
	return &path
}

func releaseYear(date string) string {
	if _, ok := parseDate(date); !ok {
		return ""
	}
	return date[:4]
}

func parseDate(date string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// validRating drops ratings outside the catalog's 0-10 scale.
func validRating(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > 10 {
		return nil
	}
	rating := *v
	return &rating
}
