package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reviewspace/internal/api/auth"
	"github.com/reviewspace/internal/workflow"
)

type SpaceHandlers struct {
	service *workflow.SpaceService
	logger  zerolog.Logger
}

func NewSpaceHandlers(service *workflow.SpaceService, logger zerolog.Logger) *SpaceHandlers {
	return &SpaceHandlers{service: service, logger: logger}
}

// CreateSpace creates a new review space inside a project
func (h *SpaceHandlers) CreateSpace(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		ProjectID   string  `json:"project_id"`
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id is required")
	}

	space, err := h.service.Create(c.Request().Context(), req.ProjectID, user.ID, req.Name, req.Description)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"review_space": space,
	})
}

// ListSpaces returns all review spaces in a project the caller belongs to
func (h *SpaceHandlers) ListSpaces(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	projectID := c.QueryParam("project_id")
	if projectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id is required")
	}

	spaces, err := h.service.List(c.Request().Context(), projectID, user.ID)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"review_spaces": spaces,
		"total":         len(spaces),
	})
}

// GetSpace returns one review space
func (h *SpaceHandlers) GetSpace(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	space, err := h.service.Get(c.Request().Context(), c.Param("space_id"), user.ID)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"review_space": space,
	})
}

// UpdateSpace applies a partial update to a review space
func (h *SpaceHandlers) UpdateSpace(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req struct {
		Name        *string `json:"name,omitempty"`
		Description *string `json:"description,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	space, err := h.service.Update(c.Request().Context(), c.Param("space_id"), user.ID, req.Name, req.Description)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"review_space": space,
	})
}

// DeleteSpace removes a space and everything it contains
func (h *SpaceHandlers) DeleteSpace(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	if err := h.service.Delete(c.Request().Context(), c.Param("space_id"), user.ID); err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "review space deleted",
	})
}
