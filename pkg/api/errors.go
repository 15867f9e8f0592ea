package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/arborly/risklab/pkg/ordering"
	"github.com/arborly/risklab/pkg/session"
)

// mapServiceError maps session/ordering-layer errors to HTTP error
// responses, per spec.md §7's propagation policy: unknown instrument or
// session maps to 404, an invalid or stale answer to 400, an already
// completed/done session, a missing pending question or DuplicateName to
// 409, and StateMismatch/CorruptState to 422 (a start-over signal); any
// other error logs and maps to 500.
func mapServiceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, session.ErrUnknownInstrument), errors.Is(err, session.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, session.ErrInvalidChoice), errors.Is(err, session.ErrStaleAnswer):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	case errors.Is(err, session.ErrAlreadyCompleted),
		errors.Is(err, ordering.ErrNoPendingQuestion),
		errors.Is(err, ordering.ErrAlreadyDone):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, ordering.ErrDuplicateName):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, ordering.ErrStateMismatch), errors.Is(err, ordering.ErrCorruptState),
		errors.Is(err, session.ErrCorruptState):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	slog.Error("unexpected session error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
