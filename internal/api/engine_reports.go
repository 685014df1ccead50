package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reviewspace/internal/workflow"
)

// EngineHandlers accepts progress reports from the external processing
// engine. Delivery is at-least-once; duplicates are absorbed downstream.
type EngineHandlers struct {
	service *workflow.TransitionService
	logger  zerolog.Logger
}

func NewEngineHandlers(service *workflow.TransitionService, logger zerolog.Logger) *EngineHandlers {
	return &EngineHandlers{service: service, logger: logger}
}

// ReportProgress applies one engine report to a qa history record
func (h *EngineHandlers) ReportProgress(c echo.Context) error {
	var req struct {
		QaHistoryID string          `json:"qa_history_id"`
		Status      string          `json:"status"`
		Outcome     json.RawMessage `json:"outcome,omitempty"`
		ErrorDetail *string         `json:"error_detail,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.QaHistoryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "qa_history_id is required")
	}

	status, err := workflow.NewQaStatus(req.Status)
	if err != nil {
		return domainError(c, err)
	}

	err = h.service.Apply(c.Request().Context(), workflow.EngineReport{
		HistoryID:   req.QaHistoryID,
		Status:      status,
		Outcome:     req.Outcome,
		ErrorDetail: req.ErrorDetail,
	})
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "report accepted",
	})
}
