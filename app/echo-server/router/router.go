package router

import (
	"aspectInsight/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetPredictionRoutes(api *echo.Group, handler *rest.PredictionHandler, aspectHandler *rest.AspectHandler) {
	predict := api.Group("/predict")
	predict.POST("", handler.Predict)
	predict.GET("/chart", aspectHandler.Chart)

	api.POST("/feedback", handler.Feedback)
}

func SetAspectRoutes(api *echo.Group, handler *rest.AspectHandler) {
	api.GET("/timeline", handler.Timeline)
	api.GET("/listings", handler.Listings)
}

func SetExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler) {
	api.GET("/ab_stats", handler.Stats)
	api.GET("/ab_log", handler.Log)
}

func SetHealthRoutes(api *echo.Group, handler *rest.HealthHandler) {
	api.GET("/health", handler.Health)
}

func SetMetricsRoute(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
