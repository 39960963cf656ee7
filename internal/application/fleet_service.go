package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-flight-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
)

// FleetService は機体・乗員・便の登録と座席状況の参照を行う
type FleetService struct {
	txManager       transaction.Manager
	planeRepo       plane.Repository
	crewRepo        crew.Repository
	flightRepo      flight.Repository
	reservationRepo reservation.Repository
	cache           redisinfra.AvailabilityCacheInterface
}

func NewFleetService(tm transaction.Manager, pr plane.Repository, cr crew.Repository, fr flight.Repository, rr reservation.Repository, cache redisinfra.AvailabilityCacheInterface) *FleetService {
	return &FleetService{txManager: tm, planeRepo: pr, crewRepo: cr, flightRepo: fr, reservationRepo: rr, cache: cache}
}

type AddPlaneInput struct {
	Make  string
	Model string
	Age   int
	Seats int
}

func (s *FleetService) AddPlane(ctx context.Context, input AddPlaneInput) (*plane.Plane, error) {
	p := plane.NewPlane(input.Make, input.Model, input.Age, input.Seats)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.planeRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *FleetService) AddPilot(ctx context.Context, fullName, nationality string) (*crew.Pilot, error) {
	p := crew.NewPilot(fullName, nationality)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.crewRepo.CreatePilot(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *FleetService) AddTechnician(ctx context.Context, fullName string) (*crew.Technician, error) {
	t := crew.NewTechnician(fullName)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.crewRepo.CreateTechnician(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

type AddFlightInput struct {
	Number           int64
	Cost             int
	NumSold          int
	NumStops         int
	DepartureAt      time.Time
	ArrivalAt        time.Time
	DepartureAirport string
	ArrivalAirport   string
	PlaneID          int64
	PilotID          *int64
}

// AddFlight は便と機体割り当てを1つのトランザクションで登録する
func (s *FleetService) AddFlight(ctx context.Context, input AddFlightInput) (*flight.Flight, error) {
	f := flight.NewFlight(input.Number, input.Cost, input.NumSold, input.NumStops,
		input.DepartureAt, input.ArrivalAt, input.DepartureAirport, input.ArrivalAirport)
	if err := f.Validate(); err != nil {
		return nil, err
	}

	p, err := s.planeRepo.GetByID(ctx, input.PlaneID)
	if err != nil {
		return nil, err
	}
	// 初期 num_sold は確定予約の行を伴わずにそのまま登録する
	// 0 以外で登録した便は整合性監査で counter_mismatch として報告される
	if f.NumSold > p.Seats {
		return nil, flight.ErrOversold
	}
	if input.PilotID != nil {
		if _, err := s.crewRepo.GetPilotByID(ctx, *input.PilotID); err != nil {
			return nil, err
		}
	}

	assignment := flight.Assignment{FlightID: f.Number, PlaneID: p.ID, PilotID: input.PilotID}
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.flightRepo.Create(ctx, tx, f, assignment)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListAvailableSeats は便の空席数を返す（キャッシュ優先）
// キャッシュミス時は DB を読む前の世代で保存し、読み出し中に予約が確定した場合は保存しない
func (s *FleetService) ListAvailableSeats(ctx context.Context, flightID int64) (int, error) {
	var generation int64
	cacheable := false
	if s.cache != nil {
		n, err := s.cache.GetSeatsAvailable(ctx, flightID)
		switch {
		case err == nil:
			logger.Debug("キャッシュヒット", logger.FlightID(flightID), zap.Int("seats_available", n))
			return n, nil
		case errors.Is(err, redisinfra.ErrCacheMiss):
			if generation, err = s.cache.Generation(ctx, flightID); err != nil {
				logger.Warn("キャッシュ世代の取得エラー", logger.FlightID(flightID), zap.Error(err))
			} else {
				cacheable = true
			}
		default:
			logger.Warn("キャッシュ取得エラー", logger.FlightID(flightID), zap.Error(err))
		}
	}

	c, err := s.flightRepo.GetCapacity(ctx, flightID)
	if err != nil {
		return 0, err
	}
	n := c.SeatsAvailable()

	if cacheable {
		err := s.cache.SetSeatsAvailable(ctx, flightID, n, generation)
		switch {
		case errors.Is(err, redisinfra.ErrStaleGeneration):
			logger.Debug("読み出し中に無効化されたためキャッシュしない", logger.FlightID(flightID))
		case err != nil:
			logger.Warn("キャッシュ保存エラー", logger.FlightID(flightID), zap.Error(err))
		}
	}
	return n, nil
}

// PassengerCountByStatus は便の予約のうち指定した状態の件数を返す
func (s *FleetService) PassengerCountByStatus(ctx context.Context, flightID int64, status reservation.Status) (int, error) {
	if !status.IsValid() {
		return 0, reservation.ErrInvalidStatus
	}
	if _, err := s.flightRepo.GetByID(ctx, flightID); err != nil {
		return 0, err
	}
	return s.reservationRepo.CountByFlightAndStatus(ctx, flightID, status)
}
