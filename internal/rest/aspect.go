package rest

import (
	"aspectInsight/domain"
	"aspectInsight/pkg/logger"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AspectHandler struct {
		validate      *validator.Validate
		aspectService AspectService
		timeout       time.Duration
	}

	AspectService interface {
		Timeline(ctx context.Context, listingID int64) (domain.Timeline, error)
		ListingIDs(variant domain.Variant) []int64
	}

	TimelineQuery struct {
		ListingID string `query:"listing_id" validate:"required"`
	}

	ListingsQuery struct {
		Variant string `query:"variant" validate:"omitempty,oneof=A B"`
	}

	ListingsResponse struct {
		Variant    domain.Variant `json:"variant"`
		ListingIDs []int64        `json:"listing_ids"`
	}
)

func NewAspectHandler(svc AspectService, timeout time.Duration) *AspectHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AspectHandler{
		validate:      validator.New(),
		aspectService: svc,
		timeout:       timeout,
	}
}

func (h *AspectHandler) bindListingID(c echo.Context) (int64, error) {
	var q TimelineQuery
	if err := c.Bind(&q); err != nil {
		return 0, err
	}
	if err := h.validate.Struct(&q); err != nil {
		return 0, err
	}

	id, err := strconv.ParseInt(q.ListingID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid listing_id %q", q.ListingID)
	}
	return id, nil
}

// GET /api/v1/timeline?listing_id=123
func (h *AspectHandler) Timeline(c echo.Context) error {
	listingID, err := h.bindListingID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	timeline, err := h.aspectService.Timeline(ctx, listingID)
	if err != nil {
		logger.Error("Failed to build timeline", "listing_id", listingID, "error", err)
		return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, timeline)
}

// GET /api/v1/predict/chart?listing_id=123
func (h *AspectHandler) Chart(c echo.Context) error {
	listingID, err := h.bindListingID(c)
	if err != nil {
		return c.HTML(http.StatusBadRequest, errorPage(err.Error()))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	timeline, err := h.aspectService.Timeline(ctx, listingID)
	if err != nil {
		logger.Error("Failed to build chart", "listing_id", listingID, "error", err)
		return c.HTML(statusFor(err), errorPage(err.Error()))
	}

	var buf bytes.Buffer
	if err := chartTemplate.Execute(&buf, newChartData(listingID, timeline)); err != nil {
		logger.Error("Failed to render chart", "listing_id", listingID, "error", err)
		return c.HTML(http.StatusInternalServerError, errorPage(err.Error()))
	}

	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// GET /api/v1/listings?variant=A
func (h *AspectHandler) Listings(c echo.Context) error {
	var q ListingsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	variant := domain.VariantA
	if q.Variant != "" {
		variant = domain.Variant(q.Variant)
	}

	return c.JSON(http.StatusOK, ListingsResponse{
		Variant:    variant,
		ListingIDs: h.aspectService.ListingIDs(variant),
	})
}
