package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-booking/internal/api"
	"github.com/sanosuguru/go-flight-booking/internal/application"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
)

// FleetHandler は機体・乗員・便の登録と座席照会を扱う
type FleetHandler struct {
	service FleetServiceInterface
}

func NewFleetHandler(s FleetServiceInterface) *FleetHandler {
	return &FleetHandler{service: s}
}

type CreatePlaneRequest struct {
	Make  string `json:"make" validate:"required,max=32" example:"Boeing"`
	Model string `json:"model" validate:"required,max=64" example:"787-9"`
	Age   int    `json:"age" validate:"required,gt=0,max=2147483647" example:"3"`
	Seats int    `json:"seats" validate:"required,min=1,max=500" example:"246"`
}

type PlaneResponse struct {
	ID    int64  `json:"id"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Age   int    `json:"age"`
	Seats int    `json:"seats"`
}

type CreatePilotRequest struct {
	FullName    string `json:"fullname" validate:"required,max=128" example:"Sato Ken"`
	Nationality string `json:"nationality" validate:"required,max=64" example:"Japan"`
}

type PilotResponse struct {
	ID          int64  `json:"id"`
	FullName    string `json:"fullname"`
	Nationality string `json:"nationality"`
}

type CreateTechnicianRequest struct {
	FullName string `json:"full_name" validate:"required,max=128" example:"Suzuki Aya"`
}

type TechnicianResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

type CreateFlightRequest struct {
	Number           int64     `json:"fnum" validate:"required,gt=0" example:"1001"`
	Cost             int       `json:"cost" validate:"gte=0,max=2147483647" example:"25000"`
	NumSold          int       `json:"num_sold" validate:"gte=0" example:"0"`
	NumStops         int       `json:"num_stops" validate:"gte=0,max=2147483647" example:"0"`
	DepartureAt      time.Time `json:"actual_departure_date" validate:"required"`
	ArrivalAt        time.Time `json:"actual_arrival_date" validate:"required,gtfield=DepartureAt"`
	DepartureAirport string    `json:"departure_airport" validate:"required,airport" example:"HND"`
	ArrivalAirport   string    `json:"arrival_airport" validate:"required,airport" example:"CTS"`
	PlaneID          int64     `json:"plane_id" validate:"required,gt=0" example:"1"`
	PilotID          *int64    `json:"pilot_id,omitempty" validate:"omitempty,gt=0"`
}

type FlightResponse struct {
	Number           int64     `json:"fnum"`
	Cost             int       `json:"cost"`
	NumSold          int       `json:"num_sold"`
	NumStops         int       `json:"num_stops"`
	DepartureAt      time.Time `json:"actual_departure_date"`
	ArrivalAt        time.Time `json:"actual_arrival_date"`
	DepartureAirport string    `json:"departure_airport"`
	ArrivalAirport   string    `json:"arrival_airport"`
}

func toFlightResponse(f *flight.Flight) FlightResponse {
	return FlightResponse{
		Number: f.Number, Cost: f.Cost, NumSold: f.NumSold, NumStops: f.NumStops,
		DepartureAt: f.DepartureAt, ArrivalAt: f.ArrivalAt,
		DepartureAirport: f.DepartureAirport, ArrivalAirport: f.ArrivalAirport,
	}
}

type SeatsAvailableResponse struct {
	FlightID       int64 `json:"flight_id"`
	SeatsAvailable int   `json:"seats_available"`
}

type PassengerCountResponse struct {
	FlightID int64  `json:"flight_id"`
	Status   string `json:"status"`
	Count    int    `json:"count"`
}

// CreatePlane godoc
// @Summary 機体を登録
// @Tags fleet
// @Accept json
// @Produce json
// @Param request body CreatePlaneRequest true "機体情報"
// @Success 201 {object} PlaneResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /planes [post]
func (h *FleetHandler) CreatePlane(c echo.Context) error {
	var req CreatePlaneRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.service.AddPlane(c.Request().Context(), application.AddPlaneInput{
		Make: req.Make, Model: req.Model, Age: req.Age, Seats: req.Seats,
	})
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, PlaneResponse{ID: p.ID, Make: p.Make, Model: p.Model, Age: p.Age, Seats: p.Seats})
}

// CreatePilot godoc
// @Summary パイロットを登録
// @Tags fleet
// @Accept json
// @Produce json
// @Param request body CreatePilotRequest true "パイロット情報"
// @Success 201 {object} PilotResponse
// @Router /pilots [post]
func (h *FleetHandler) CreatePilot(c echo.Context) error {
	var req CreatePilotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.service.AddPilot(c.Request().Context(), req.FullName, req.Nationality)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, PilotResponse{ID: p.ID, FullName: p.FullName, Nationality: p.Nationality})
}

// CreateTechnician godoc
// @Summary 整備士を登録
// @Tags fleet
// @Accept json
// @Produce json
// @Param request body CreateTechnicianRequest true "整備士情報"
// @Success 201 {object} TechnicianResponse
// @Router /technicians [post]
func (h *FleetHandler) CreateTechnician(c echo.Context) error {
	var req CreateTechnicianRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	t, err := h.service.AddTechnician(c.Request().Context(), req.FullName)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, TechnicianResponse{ID: t.ID, FullName: t.FullName})
}

// CreateFlight godoc
// @Summary 便を登録
// @Description 便と機体（任意でパイロット）の割り当てを登録します
// @Tags fleet
// @Accept json
// @Produce json
// @Param request body CreateFlightRequest true "便情報"
// @Success 201 {object} FlightResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse "機体またはパイロットが存在しない"
// @Failure 409 {object} api.ErrorResponse "便名が重複"
// @Router /flights [post]
func (h *FleetHandler) CreateFlight(c echo.Context) error {
	var req CreateFlightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	f, err := h.service.AddFlight(c.Request().Context(), application.AddFlightInput{
		Number:           req.Number,
		Cost:             req.Cost,
		NumSold:          req.NumSold,
		NumStops:         req.NumStops,
		DepartureAt:      req.DepartureAt,
		ArrivalAt:        req.ArrivalAt,
		DepartureAirport: req.DepartureAirport,
		ArrivalAirport:   req.ArrivalAirport,
		PlaneID:          req.PlaneID,
		PilotID:          req.PilotID,
	})
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toFlightResponse(f))
}

// SeatsAvailable godoc
// @Summary 空席数を取得
// @Tags fleet
// @Produce json
// @Param fnum path int true "便名"
// @Success 200 {object} SeatsAvailableResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /flights/{fnum}/seats/available [get]
func (h *FleetHandler) SeatsAvailable(c echo.Context) error {
	fnum, err := flightNumberParam(c)
	if err != nil {
		return err
	}
	n, err := h.service.ListAvailableSeats(c.Request().Context(), fnum)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, SeatsAvailableResponse{FlightID: fnum, SeatsAvailable: n})
}

// PassengerCount godoc
// @Summary 状態別の予約件数を取得
// @Tags fleet
// @Produce json
// @Param fnum path int true "便名"
// @Param status query string true "R / W / C（大文字小文字を区別しない）"
// @Success 200 {object} PassengerCountResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /flights/{fnum}/passengers [get]
func (h *FleetHandler) PassengerCount(c echo.Context) error {
	fnum, err := flightNumberParam(c)
	if err != nil {
		return err
	}
	status, err := reservation.ParseStatus(c.QueryParam("status"))
	if err != nil {
		return api.ToHTTPError(err)
	}
	n, err := h.service.PassengerCountByStatus(c.Request().Context(), fnum, status)
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, PassengerCountResponse{FlightID: fnum, Status: status.Name(), Count: n})
}
