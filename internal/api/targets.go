package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reviewspace/internal/api/auth"
	"github.com/reviewspace/internal/workflow"
)

type TargetHandlers struct {
	service *workflow.TargetService
	logger  zerolog.Logger
}

func NewTargetHandlers(service *workflow.TargetService, logger zerolog.Logger) *TargetHandlers {
	return &TargetHandlers{service: service, logger: logger}
}

// SubmitTarget submits an artifact into a review space for analysis
func (h *TargetHandlers) SubmitTarget(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		ArtifactRef string `json:"artifact_ref"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	target, err := h.service.Submit(c.Request().Context(), c.Param("space_id"), user.ID, req.ArtifactRef)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"review_target": target,
	})
}

// GetTarget returns a target together with its current result view
func (h *TargetHandlers) GetTarget(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	view, err := h.service.Get(c.Request().Context(), c.Param("target_id"), user.ID)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"review_target": view,
	})
}

// RetryTarget re-queues a failed analysis
func (h *TargetHandlers) RetryTarget(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	if err := h.service.Retry(c.Request().Context(), c.Param("target_id"), user.ID); err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "analysis retry queued",
	})
}
