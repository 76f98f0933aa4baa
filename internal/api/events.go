package api

import (
	"errors"
	"fmt"

	"github.com/cinematch/cinematch/internal/metadata"
	"github.com/cinematch/cinematch/internal/session"
)

var (
	ErrInvalidEvent   = errors.New("invalid event")
	ErrUnknownMessage = errors.New("unknown message type")
)

// Client message types accepted over the websocket.
const (
	MessageQueryChanged  = "query:changed"
	MessageFilterChanged = "filter:changed"
	MessageItemSelected  = "item:selected"
)

type queryRequest struct {
	Text string `json:"text"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

type selectRequest struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	MediaType string `json:"mediaType"`
}

func (r queryRequest) event() (session.Event, error) {
	return session.QueryChanged{Text: r.Text}, nil
}

func (r filterRequest) event() (session.Event, error) {
	if r.Filter == "" {
		return nil, fmt.Errorf("%w: filter is required", ErrInvalidEvent)
	}
	filter, err := metadata.ParseSearchFilter(r.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return session.FilterChanged{Filter: filter}, nil
}

func (r selectRequest) event() (session.Event, error) {
	if r.ID <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", ErrInvalidEvent)
	}
	mediaType, err := metadata.ParseMediaType(r.MediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return session.ItemSelected{ID: r.ID, Title: r.Title, MediaType: mediaType}, nil
}
