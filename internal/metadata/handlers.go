package metadata

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handlers provides HTTP handlers for search and recommendation lookups.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the metadata routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
	g.GET("/:mediaType/:id/recommendations", h.GetRecommendations)
}

// RecommendationsResponse is the body of a recommendations lookup.
type RecommendationsResponse struct {
	Selected        *SelectedItem `json:"selected"`
	Recommendations []MediaItem   `json:"recommendations"`
}

// Search searches the catalog.
// GET /api/v1/search?query=...&type=movie|tv|all
func (h *Handlers) Search(c echo.Context) error {
	filter, err := ParseSearchFilter(c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	items, err := h.service.Search(c.Request().Context(), SearchQuery{
		Text:   c.QueryParam("query"),
		Filter: filter,
	})
	if err != nil {
		if errors.Is(err, ErrAPIConnection) {
			return echo.NewHTTPError(http.StatusBadGateway, SearchErrorMessage)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, items)
}

// GetRecommendations resolves an item's details and ranked recommendations.
// GET /api/v1/:mediaType/:id/recommendations
func (h *Handlers) GetRecommendations(c echo.Context) error {
	mediaType, err := ParseMediaType(c.Param("mediaType"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	selected, recommendations, err := h.service.Resolve(c.Request().Context(), id, mediaType)
	if err != nil {
		var resolveErr *ResolveError
		if errors.As(err, &resolveErr) {
			return echo.NewHTTPError(http.StatusBadGateway, ResolveErrorMessage)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, RecommendationsResponse{
		Selected:        selected,
		Recommendations: recommendations,
	})
}
