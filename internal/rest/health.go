package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	HealthHandler struct {
		models ModelStatus
		log    LogStatus
	}

	ModelStatus interface {
		IsLoaded() bool
	}

	LogStatus interface {
		Unpersisted() int
	}

	HealthResponse struct {
		Status                string `json:"status"`
		ModelsLoaded          bool   `json:"models_loaded"`
		UnpersistedLogEntries int    `json:"unpersisted_log_entries"`
	}
)

func NewHealthHandler(models ModelStatus, log LogStatus) *HealthHandler {
	return &HealthHandler{models: models, log: log}
}

// GET /api/v1/health; degraded still answers 200
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{
		Status:                "ok",
		ModelsLoaded:          h.models.IsLoaded(),
		UnpersistedLogEntries: h.log.Unpersisted(),
	}
	if !resp.ModelsLoaded || resp.UnpersistedLogEntries > 0 {
		resp.Status = "degraded"
	}

	return c.JSON(http.StatusOK, resp)
}
