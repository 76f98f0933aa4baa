package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrAPIConnection wraps every catalog failure during search.
	ErrAPIConnection    = errors.New("API connection error")
	ErrInvalidMediaType = errors.New("invalid media type")
	ErrInvalidFilter    = errors.New("invalid search filter")
)

// User facing messages shown in place of results.
const (
	SearchErrorMessage  = "API connection error."
	ResolveErrorMessage = "Failed to fetch media details or recommendations."
)

// ResolveError reports a failed detail or recommendation fetch for one item.
type ResolveError struct {
	ID        int
	MediaType MediaType
	Err       error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s %d: %v", e.MediaType, e.ID, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// UserMessage maps an operation error to the message the UI displays.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return ResolveErrorMessage
	}
	return SearchErrorMessage
}
