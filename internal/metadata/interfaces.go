package metadata

import (
	"context"

	"github.com/cinematch/cinematch/internal/metadata/tmdb"
)

// CatalogClient defines the catalog operations the service depends on.
// Both tmdb.Client and tmdb.BreakerClient satisfy it.
type CatalogClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	Search(ctx context.Context, kind, query string) ([]tmdb.Result, error)
	GetDetails(ctx context.Context, mediaType string, id int) (*tmdb.Details, error)
	GetRecommendations(ctx context.Context, mediaType string, id int) ([]tmdb.Result, error)
	GetImageURL(path string, size string) string
}
