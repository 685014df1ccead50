package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reviewspace/internal/workflow"
)

// domainError maps workflow errors to HTTP responses. Forbidden is presented
// as a plain not-found so probing for a space's existence tells a non-member
// nothing; the domain layer still distinguishes the two.
func domainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, workflow.ErrForbidden):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, workflow.ErrStatusConflict):
		return echo.NewHTTPError(http.StatusConflict, "status conflict")
	case errors.Is(err, workflow.ErrUserSyncFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, "unable to resolve user")
	case workflow.IsValidation(err), workflow.IsInvalidTransition(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Logger().Error(err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
