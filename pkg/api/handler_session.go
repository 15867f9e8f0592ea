package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/arborly/risklab/pkg/session"
)

// startSessionHandler handles POST /api/v1/sessions.
func (s *Server) startSessionHandler(c *echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Instrument == "" || req.ParticipantID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "instrument and participant_id are required")
	}

	outcome, err := s.driver.Start(c.Request().Context(), req.Instrument, req.ParticipantID)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusCreated, newSessionResponse(outcome))
}

// resumeSessionHandler handles GET /api/v1/sessions/:id. It re-reads the
// session's current question (or final ordering) without mutating
// anything, for a participant reloading the page or switching device.
func (s *Server) resumeSessionHandler(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	outcome, err := s.driver.Resume(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(outcome))
}

// answerSessionHandler handles POST /api/v1/sessions/:id/answer.
func (s *Server) answerSessionHandler(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	outcome, err := s.driver.Step(c.Request().Context(), id, session.Answer{
		A: req.A, B: req.B, C: req.C, Choice: req.Choice,
	})
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(outcome))
}
