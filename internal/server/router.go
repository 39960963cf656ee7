package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-flight-booking/internal/api"
	"github.com/sanosuguru/go-flight-booking/internal/api/handler"
	"github.com/sanosuguru/go-flight-booking/internal/api/middleware"
)

// NewEcho はミドルウェアとルートを設定したEchoを返す
// gatherer が nil の場合は /metrics を公開しない
func NewEcho(c *Components, gatherer prometheus.Gatherer, metricsAuth *middleware.MetricsConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	if c.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(c.Metrics))
	}

	healthHandler := handler.NewHealthHandler(c.HealthChecks())
	bookingHandler := handler.NewBookingHandler(c.Booking)
	fleetHandler := handler.NewFleetHandler(c.Fleet)
	reportHandler := handler.NewReportHandler(c.Reports)

	e.GET("/health", healthHandler.Check)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
			middleware.MetricsBasicAuth(metricsAuth))
	}

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/planes", fleetHandler.CreatePlane)
	v1.POST("/pilots", fleetHandler.CreatePilot)
	v1.POST("/technicians", fleetHandler.CreateTechnician)
	v1.POST("/flights", fleetHandler.CreateFlight)

	v1.POST("/flights/:fnum/bookings", bookingHandler.Book)
	v1.GET("/flights/:fnum/seats/available", fleetHandler.SeatsAvailable)
	v1.GET("/flights/:fnum/passengers", fleetHandler.PassengerCount)

	v1.GET("/reports/repairs/planes", reportHandler.RepairsPerPlane)
	v1.GET("/reports/repairs/years", reportHandler.RepairsPerYear)

	return e
}
