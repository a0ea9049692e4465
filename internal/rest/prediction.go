package rest

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"aspectInsight/pkg/metrics"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PredictionHandler struct {
		validate          *validator.Validate
		predictionService PredictionService
		timeout           time.Duration
	}

	PredictionService interface {
		Predict(ctx context.Context, listingID int64, topK int) (domain.Prediction, error)
		Feedback(ctx context.Context, listingID int64, rating float64, comment string) error
	}

	PredictRequest struct {
		ListingID *int64 `json:"listing_id" validate:"required"`
		TopK      *int   `json:"top_k" validate:"omitempty,min=1"`
	}

	PredictResponse struct {
		ListingID     int64                  `json:"listing_id"`
		TopK          int                    `json:"top_k"`
		TopAspects    []domain.AspectSummary `json:"top_aspects"`
		BottomAspects []domain.AspectSummary `json:"bottom_aspects"`
		ChartURL      string                 `json:"chart_url"`
		Timestamp     string                 `json:"timestamp"`
	}

	FeedbackRequest struct {
		ListingID *int64   `json:"listing_id" validate:"required"`
		Rating    *float64 `json:"rating" validate:"required"`
		Comment   string   `json:"comment"`
	}
)

func NewPredictionHandler(svc PredictionService, timeout time.Duration) *PredictionHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PredictionHandler{
		validate:          validator.New(),
		predictionService: svc,
		timeout:           timeout,
	}
}

// POST /api/v1/predict {"listing_id": 123, "top_k": 3}
func (h *PredictionHandler) Predict(c echo.Context) error {
	start := time.Now()
	metrics.PredictRequests.Inc()
	defer func() {
		metrics.PredictLatency.Observe(time.Since(start).Seconds())
	}()

	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	topK := 0
	if req.TopK != nil {
		topK = *req.TopK
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	pred, err := h.predictionService.Predict(ctx, *req.ListingID, topK)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.PredictNotFound.Inc()
			return c.JSON(http.StatusNotFound, ResponseError{
				Message: fmt.Sprintf("no data for listing %d", *req.ListingID),
			})
		}
		logger.Error("Failed to predict", "listing_id", *req.ListingID, "error", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, PredictResponse{
		ListingID:     pred.ListingID,
		TopK:          pred.TopK,
		TopAspects:    pred.Ranking.Top,
		BottomAspects: pred.Ranking.Bottom,
		ChartURL:      fmt.Sprintf("/api/v1/predict/chart?listing_id=%d", pred.ListingID),
		Timestamp:     time.Now().Format(time.RFC3339Nano),
	})
}

// POST /api/v1/feedback {"listing_id": 123, "rating": 4.5, "comment": "..."}
func (h *PredictionHandler) Feedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.predictionService.Feedback(ctx, *req.ListingID, *req.Rating, req.Comment); err != nil {
		logger.Error("Failed to record feedback", "listing_id", *req.ListingID, "error", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]string{"status": "success"})
}
