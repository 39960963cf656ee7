package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-booking/internal/api"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type BookFlightRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0" example:"42"`
}

type BookingResponse struct {
	ReservationNumber int64     `json:"rnum" example:"17"`
	CustomerID        int64     `json:"customer_id" example:"42"`
	FlightID          int64     `json:"flight_id" example:"1001"`
	Status            string    `json:"status" example:"confirmed"`
	StatusCode        string    `json:"status_code" example:"R"`
	CreatedAt         time.Time `json:"created_at"`
}

func toBookingResponse(r *reservation.Reservation) BookingResponse {
	return BookingResponse{
		ReservationNumber: r.Number,
		CustomerID:        r.CustomerID,
		FlightID:          r.FlightID,
		Status:            r.Status.Name(),
		StatusCode:        string(r.Status),
		CreatedAt:         r.CreatedAt,
	}
}

// Book godoc
// @Summary 便を予約
// @Description 空席があれば確定（R）、満席ならキャンセル待ち（W）で予約を登録します
// @Tags bookings
// @Accept json
// @Produce json
// @Param fnum path int true "便名"
// @Param request body BookFlightRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse "便または機体が存在しない"
// @Failure 409 {object} api.ErrorResponse "競合が解消しなかった"
// @Failure 503 {object} api.ErrorResponse
// @Failure 504 {object} api.ErrorResponse
// @Router /flights/{fnum}/bookings [post]
func (h *BookingHandler) Book(c echo.Context) error {
	fnum, err := flightNumberParam(c)
	if err != nil {
		return err
	}
	var req BookFlightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	r, err := h.service.BookFlight(c.Request().Context(), fnum, req.CustomerID)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(r))
}
