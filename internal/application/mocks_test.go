package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-flight-booking/internal/infrastructure/redis"
)

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockFlightRepository implements flight.Repository
type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, tx transaction.Tx, f *flight.Flight, a flight.Assignment) error {
	args := m.Called(ctx, tx, f, a)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, number int64) (*flight.Flight, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetCapacityForUpdate(ctx context.Context, tx transaction.Tx, number int64) (*flight.Capacity, error) {
	args := m.Called(ctx, tx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Capacity), args.Error(1)
}

func (m *MockFlightRepository) GetCapacity(ctx context.Context, number int64) (*flight.Capacity, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Capacity), args.Error(1)
}

func (m *MockFlightRepository) IncrementSold(ctx context.Context, tx transaction.Tx, number int64) error {
	args := m.Called(ctx, tx, number)
	return args.Error(0)
}

func (m *MockFlightRepository) ListLedgerSummaries(ctx context.Context) ([]flight.LedgerSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]flight.LedgerSummary), args.Error(1)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) NextNumber(ctx context.Context, tx transaction.Tx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByNumber(ctx context.Context, number int64) (*reservation.Reservation, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByFlight(ctx context.Context, flightID int64) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountByFlightAndStatus(ctx context.Context, flightID int64, status reservation.Status) (int, error) {
	args := m.Called(ctx, flightID, status)
	return args.Int(0), args.Error(1)
}

// MockPlaneRepository implements plane.Repository
type MockPlaneRepository struct {
	mock.Mock
}

func (m *MockPlaneRepository) Create(ctx context.Context, p *plane.Plane) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPlaneRepository) GetByID(ctx context.Context, id int64) (*plane.Plane, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plane.Plane), args.Error(1)
}

// MockCrewRepository implements crew.Repository
type MockCrewRepository struct {
	mock.Mock
}

func (m *MockCrewRepository) CreatePilot(ctx context.Context, p *crew.Pilot) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockCrewRepository) GetPilotByID(ctx context.Context, id int64) (*crew.Pilot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crew.Pilot), args.Error(1)
}

func (m *MockCrewRepository) CreateTechnician(ctx context.Context, t *crew.Technician) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// MockLockManager implements redisinfra.LockManagerInterface
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) LockFlight(ctx context.Context, flightID int64, ttl time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, flightID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock implements redisinfra.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAvailabilityCache implements redisinfra.AvailabilityCacheInterface
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) GetSeatsAvailable(ctx context.Context, flightID int64) (int, error) {
	args := m.Called(ctx, flightID)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailabilityCache) Generation(ctx context.Context, flightID int64) (int64, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAvailabilityCache) SetSeatsAvailable(ctx context.Context, flightID int64, seats int, generation int64) error {
	args := m.Called(ctx, flightID, seats, generation)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, flightID int64) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

// MockPublisher implements EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingDecided(ctx context.Context, event booking.DecidedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
