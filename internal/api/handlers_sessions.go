package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinematch/cinematch/internal/session"
)

// SessionResponse is the body returned when a session is created.
type SessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
}

// createSession starts a new interaction session.
// POST /api/v1/sessions
func (s *Server) createSession(c echo.Context) error {
	coord := s.sessions.Create()
	return c.JSON(http.StatusCreated, SessionResponse{
		ID:    coord.ID(),
		State: coord.State(),
	})
}

// getSession returns a session's current state.
// GET /api/v1/sessions/:id
func (s *Server) getSession(c echo.Context) error {
	coord, err := s.lookupSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, coord.State())
}

// deleteSession ends a session.
// DELETE /api/v1/sessions/:id
func (s *Server) deleteSession(c echo.Context) error {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// changeQuery applies a search text edit.
// PUT /api/v1/sessions/:id/query
func (s *Server) changeQuery(c echo.Context) error {
	var req queryRequest
	return s.dispatch(c, &req)
}

// changeFilter switches the media type filter for the next query.
// PUT /api/v1/sessions/:id/filter
func (s *Server) changeFilter(c echo.Context) error {
	var req filterRequest
	return s.dispatch(c, &req)
}

// selectItem picks a search result and resolves its recommendations.
// POST /api/v1/sessions/:id/select
func (s *Server) selectItem(c echo.Context) error {
	var req selectRequest
	return s.dispatch(c, &req)
}

// dispatch binds the request body, applies the resulting event and returns
// the state right after the transition.
func (s *Server) dispatch(c echo.Context, req interface {
	event() (session.Event, error)
}) error {
	coord, err := s.lookupSession(c)
	if err != nil {
		return err
	}

	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	e, err := req.event()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, coord.Dispatch(e))
}

func (s *Server) lookupSession(c echo.Context) (*session.Coordinator, error) {
	coord, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		return nil, sessionError(err)
	}
	return coord, nil
}

func sessionError(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
