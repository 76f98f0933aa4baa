// Package session implements the per-browser interaction state machine that
// drives searches and recommendation lookups.
package session

import (
	"strings"

	"github.com/cinematch/cinematch/internal/metadata"
)

// State is one immutable snapshot of a session. Reduce never mutates the
// slices it is given; it replaces them.
type State struct {
	Query           string                 `json:"query"`
	Filter          metadata.SearchFilter  `json:"filter"`
	Results         []metadata.MediaItem   `json:"results"`
	Selected        *metadata.SelectedItem `json:"selected"`
	Recommendations []metadata.MediaItem   `json:"recommendations"`
	Loading         bool                   `json:"loading"`
	Error           string                 `json:"error,omitempty"`
	Generation      uint64                 `json:"generation"`
}

// Initial returns the state of a fresh session.
func Initial() State {
	return State{
		Filter:          metadata.FilterMovie,
		Results:         []metadata.MediaItem{},
		Recommendations: []metadata.MediaItem{},
	}
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// QueryChanged is the user editing the search text.
type QueryChanged struct {
	Text string `json:"text"`
}

// FilterChanged is the user switching the media type filter. It applies to
// the next query only.
type FilterChanged struct {
	Filter metadata.SearchFilter `json:"filter"`
}

// ItemSelected is the user picking a search result.
type ItemSelected struct {
	ID        int                `json:"id"`
	Title     string             `json:"title"`
	MediaType metadata.MediaType `json:"mediaType"`
}

// SearchSucceeded carries the results of the search issued under Generation.
type SearchSucceeded struct {
	Generation uint64
	Items      []metadata.MediaItem
}

// SearchFailed reports the failure of the search issued under Generation.
type SearchFailed struct {
	Generation uint64
	Err        error
}

// ResolveSucceeded carries the lookup issued under Generation.
type ResolveSucceeded struct {
	Generation      uint64
	Selected        *metadata.SelectedItem
	Recommendations []metadata.MediaItem
}

// ResolveFailed reports the failure of the lookup issued under Generation.
type ResolveFailed struct {
	Generation uint64
	Err        error
}

func (QueryChanged) event()     {}
func (FilterChanged) event()    {}
func (ItemSelected) event()     {}
func (SearchSucceeded) event()  {}
func (SearchFailed) event()     {}
func (ResolveSucceeded) event() {}
func (ResolveFailed) event()    {}

// Reduce returns the state that follows s after e. Responses whose generation
// is not the current one are stale and leave s unchanged.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case QueryChanged:
		s.Generation++
		s.Query = ev.Text
		s.Selected = nil
		s.Recommendations = []metadata.MediaItem{}
		s.Error = ""
		if isBlank(ev.Text) {
			s.Results = []metadata.MediaItem{}
			s.Loading = false
		} else {
			s.Loading = true
		}

	case FilterChanged:
		s.Filter = ev.Filter

	case SearchSucceeded:
		if ev.Generation != s.Generation {
			return s
		}
		s.Results = nonNil(ev.Items)
		s.Loading = false
		s.Error = ""

	case SearchFailed:
		if ev.Generation != s.Generation {
			return s
		}
		s.Results = []metadata.MediaItem{}
		s.Loading = false
		s.Error = metadata.SearchErrorMessage

	case ItemSelected:
		s.Generation++
		s.Query = ev.Title
		s.Results = []metadata.MediaItem{}
		s.Selected = nil
		s.Recommendations = []metadata.MediaItem{}
		s.Loading = true
		s.Error = ""

	case ResolveSucceeded:
		if ev.Generation != s.Generation {
			return s
		}
		s.Selected = ev.Selected
		s.Recommendations = nonNil(ev.Recommendations)
		s.Loading = false
		s.Error = ""

	case ResolveFailed:
		if ev.Generation != s.Generation {
			return s
		}
		s.Loading = false
		s.Error = metadata.ResolveErrorMessage
	}
	return s
}

// Stale reports whether e is a response issued under a generation other than
// the current one of s.
func Stale(s State, e Event) bool {
	switch ev := e.(type) {
	case SearchSucceeded:
		return ev.Generation != s.Generation
	case SearchFailed:
		return ev.Generation != s.Generation
	case ResolveSucceeded:
		return ev.Generation != s.Generation
	case ResolveFailed:
		return ev.Generation != s.Generation
	}
	return false
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func nonNil(items []metadata.MediaItem) []metadata.MediaItem {
	if items == nil {
		return []metadata.MediaItem{}
	}
	return items
}
