package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-booking/internal/api"
	"github.com/sanosuguru/go-flight-booking/internal/domain/report"
)

type ReportHandler struct {
	service ReportServiceInterface
}

func NewReportHandler(s ReportServiceInterface) *ReportHandler {
	return &ReportHandler{service: s}
}

// RepairsPerPlane godoc
// @Summary 機体ごとの整備件数
// @Description 件数の多い順に返します
// @Tags reports
// @Produce json
// @Success 200 {array} report.PlaneRepairCount
// @Router /reports/repairs/planes [get]
func (h *ReportHandler) RepairsPerPlane(c echo.Context) error {
	rows, err := h.service.RepairsPerPlane(c.Request().Context())
	if err != nil {
		return api.ToHTTPError(err)
	}
	if rows == nil {
		rows = []report.PlaneRepairCount{}
	}
	return c.JSON(http.StatusOK, rows)
}

// RepairsPerYear godoc
// @Summary 年ごとの整備件数
// @Description 件数の少ない順に返します
// @Tags reports
// @Produce json
// @Success 200 {array} report.YearRepairCount
// @Router /reports/repairs/years [get]
func (h *ReportHandler) RepairsPerYear(c echo.Context) error {
	rows, err := h.service.RepairsPerYear(c.Request().Context())
	if err != nil {
		return api.ToHTTPError(err)
	}
	if rows == nil {
		rows = []report.YearRepairCount{}
	}
	return c.JSON(http.StatusOK, rows)
}
