package handler

import (
	"context"

	"github.com/sanosuguru/go-flight-booking/internal/application"
	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/report"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	BookFlight(ctx context.Context, flightID, customerID int64) (*reservation.Reservation, error)
}

// FleetServiceInterface は機体・乗員・便サービスのインターフェース
type FleetServiceInterface interface {
	AddPlane(ctx context.Context, input application.AddPlaneInput) (*plane.Plane, error)
	AddPilot(ctx context.Context, fullName, nationality string) (*crew.Pilot, error)
	AddTechnician(ctx context.Context, fullName string) (*crew.Technician, error)
	AddFlight(ctx context.Context, input application.AddFlightInput) (*flight.Flight, error)
	ListAvailableSeats(ctx context.Context, flightID int64) (int, error)
	PassengerCountByStatus(ctx context.Context, flightID int64, status reservation.Status) (int, error)
}

// ReportServiceInterface は整備レポートサービスのインターフェース
type ReportServiceInterface interface {
	RepairsPerPlane(ctx context.Context) ([]report.PlaneRepairCount, error)
	RepairsPerYear(ctx context.Context) ([]report.YearRepairCount, error)
}
