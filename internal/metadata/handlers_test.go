package metadata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/internal/metadata/tmdb"
	"github.com/cinematch/cinematch/internal/testutil"
)

func setupTestHandlers(t *testing.T) (*echo.Echo, *testutil.Catalog) {
	t.Helper()

	catalog := testutil.NewCatalog(t)
	catalog.SetSearch("movie", "matrix", tmdb.Result{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30"})
	setupDarkKnight(catalog)

	e := echo.New()
	NewHandlers(NewService(catalog.Client(), testutil.NopLogger())).RegisterRoutes(e.Group("/api/v1"))
	return e, catalog
}

func TestHandlers_Search(t *testing.T) {
	e, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=matrix", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var items []MediaItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "The Matrix", items[0].Title)
	assert.Equal(t, MediaTypeMovie, items[0].MediaType)
}

func TestHandlers_Search_BlankQuery(t *testing.T) {
	e, catalog := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=%20&type=all", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, catalog.Requests())
}

func TestHandlers_Search_BadType(t *testing.T) {
	e, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=matrix&type=person", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_Search_CatalogDown(t *testing.T) {
	e, catalog := setupTestHandlers(t)
	catalog.Fail("/search/tv", http.StatusServiceUnavailable)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?query=matrix&type=tv", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), SearchErrorMessage)
}

func TestHandlers_GetRecommendations(t *testing.T) {
	e, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movie/155/recommendations", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RecommendationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "The Dark Knight", resp.Selected.Title)
	assert.Equal(t, MediaTypeMovie, resp.Selected.MediaType)
	require.NotEmpty(t, resp.Recommendations)
	assert.Equal(t, "Inception", resp.Recommendations[0].Title)
}

func TestHandlers_GetRecommendations_BadRequest(t *testing.T) {
	e, catalog := setupTestHandlers(t)

	for _, path := range []string{
		"/api/v1/person/155/recommendations",
		"/api/v1/movie/abc/recommendations",
		"/api/v1/movie/-3/recommendations",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	assert.Empty(t, catalog.Requests())
}

func TestHandlers_GetRecommendations_NotFound(t *testing.T) {
	e, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tv/999/recommendations", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), ResolveErrorMessage)
}
