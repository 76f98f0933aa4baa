package tmdb

// Endpoint path segments shared by search, detail and recommendation calls.
const (
	MediaMovie  = "movie"
	MediaTV     = "tv"
	MediaPerson = "person"
	SearchMulti = "multi"
)

// Image sizes used by the UI.
const (
	ImageSizeThumbnail = "w92"
	ImageSizePoster    = "w200"
)

// ResultsResponse is the envelope of search and recommendation responses.
type ResultsResponse struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Result is one entry of a search or recommendation list. Movies carry Title
// and ReleaseDate, series carry Name and FirstAirDate; multi search and
// recommendations also tag the entry with MediaType.
type Result struct {
	ID           int      `json:"id"`
	MediaType    string   `json:"media_type,omitempty"`
	Title        string   `json:"title,omitempty"`
	Name         string   `json:"name,omitempty"`
	Overview     string   `json:"overview,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	FirstAirDate string   `json:"first_air_date,omitempty"`
	VoteAverage  *float64 `json:"vote_average,omitempty"`
	VoteCount    int      `json:"vote_count,omitempty"`
	Popularity   float64  `json:"popularity,omitempty"`
	PosterPath   *string  `json:"poster_path,omitempty"`
}

// Details is the detail record of a movie or series. It has the same field
// shape as Result minus media_type, plus the detail-only fields.
type Details struct {
	ID             int      `json:"id"`
	Title          string   `json:"title,omitempty"`
	Name           string   `json:"name,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	Tagline        string   `json:"tagline,omitempty"`
	Status         string   `json:"status,omitempty"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	FirstAirDate   string   `json:"first_air_date,omitempty"`
	VoteAverage    *float64 `json:"vote_average,omitempty"`
	VoteCount      int      `json:"vote_count,omitempty"`
	PosterPath     *string  `json:"poster_path,omitempty"`
	Genres         []Genre  `json:"genres,omitempty"`
	Runtime        int      `json:"runtime,omitempty"`
	EpisodeRunTime []int    `json:"episode_run_time,omitempty"`
}

// Genre represents a genre from TMDB.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse is an error from the TMDB API.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}
