package rest

import (
	"aspectInsight/domain"
	"net/http"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	ExperimentHandler struct {
		validate      *validator.Validate
		experimentLog ExperimentLog
	}

	ExperimentLog interface {
		Statistics() domain.ExperimentStats
		Query(variant domain.Variant, limit int) []domain.LogEntry
	}

	LogQuery struct {
		Variant string `query:"variant" validate:"omitempty,oneof=A B unknown"`
		Limit   int    `query:"limit" validate:"min=0"`
	}

	LogResponse struct {
		TotalRecords int               `json:"total_records"`
		Log          []domain.LogEntry `json:"log"`
	}
)

func NewExperimentHandler(log ExperimentLog) *ExperimentHandler {
	return &ExperimentHandler{
		validate:      validator.New(),
		experimentLog: log,
	}
}

// GET /api/v1/ab_stats
func (h *ExperimentHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.experimentLog.Statistics()))
}

// GET /api/v1/ab_log?variant=A&limit=50
func (h *ExperimentHandler) Log(c echo.Context) error {
	var q LogQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	entries := h.experimentLog.Query(domain.Variant(q.Variant), q.Limit)

	return c.JSON(http.StatusOK, fres.Response.StatusOK(LogResponse{
		TotalRecords: len(entries),
		Log:          entries,
	}))
}
