package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-booking/internal/infrastructure/memory"
)

// bookingEnv は予約サービスとその背後のストアをまとめたテスト環境
type bookingEnv struct {
	booking      *BookingService
	fleet        *FleetService
	flights      flight.Repository
	reservations reservation.Repository
}

func newMemoryEnv(t *testing.T) *bookingEnv {
	t.Helper()
	store := memory.NewStore()
	return newBookingEnv(store,
		memory.NewFlightRepository(store),
		memory.NewReservationRepository(store),
		memory.NewPlaneRepository(store),
		memory.NewCrewRepository(store),
	)
}

func newBookingEnv(tm transaction.Manager, fr flight.Repository, rr reservation.Repository, pr plane.Repository, cr crew.Repository) *bookingEnv {
	return &bookingEnv{
		booking: NewBookingService(BookingDeps{TxManager: tm, FlightRepo: fr, ReservationRepo: rr}, BookingOptions{
			MaxRetries: 10,
			RetryDelay: 5 * time.Millisecond,
			Timeout:    10 * time.Second,
		}),
		fleet:        NewFleetService(tm, pr, cr, fr, rr, nil),
		flights:      fr,
		reservations: rr,
	}
}

// seedFlight は座席数 seats の機体と、販売済み numSold の便を登録する
func (e *bookingEnv) seedFlight(t *testing.T, fnum int64, seats, numSold int) {
	t.Helper()
	ctx := context.Background()

	p, err := e.fleet.AddPlane(ctx, AddPlaneInput{Make: "Boeing", Model: "737", Age: 8, Seats: seats})
	require.NoError(t, err)

	dep := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	_, err = e.fleet.AddFlight(ctx, AddFlightInput{
		Number: fnum, Cost: 500, NumSold: numSold,
		DepartureAt: dep, ArrivalAt: dep.Add(90 * time.Minute),
		DepartureAirport: "HND", ArrivalAirport: "FUK",
		PlaneID: p.ID,
	})
	require.NoError(t, err)
}

// assertLedgerConsistent は num_sold と確定予約数の一致と売り越しがないことを確認する
func (e *bookingEnv) assertLedgerConsistent(t *testing.T, fnum int64) {
	t.Helper()
	ctx := context.Background()

	c, err := e.flights.GetCapacity(ctx, fnum)
	require.NoError(t, err)
	confirmed, err := e.reservations.CountByFlightAndStatus(ctx, fnum, reservation.StatusConfirmed)
	require.NoError(t, err)

	assert.Equal(t, confirmed, c.NumSold, "num_sold と確定予約数が一致")
	assert.LessOrEqual(t, c.NumSold, c.Seats, "座席数を超えて販売しない")
}

func runBookingScenarios(t *testing.T, newEnv func(t *testing.T) *bookingEnv, fnumBase int64) {
	ctx := context.Background()

	t.Run("2席の便に3件予約すると3件目がキャンセル待ち", func(t *testing.T) {
		env := newEnv(t)
		fnum := fnumBase + 1
		env.seedFlight(t, fnum, 2, 0)

		first, err := env.booking.BookFlight(ctx, fnum, 1)
		require.NoError(t, err)
		second, err := env.booking.BookFlight(ctx, fnum, 2)
		require.NoError(t, err)
		third, err := env.booking.BookFlight(ctx, fnum, 3)
		require.NoError(t, err)

		assert.Equal(t, reservation.StatusConfirmed, first.Status)
		assert.Equal(t, reservation.StatusConfirmed, second.Status)
		assert.Equal(t, reservation.StatusWaitlisted, third.Status)

		c, err := env.flights.GetCapacity(ctx, fnum)
		require.NoError(t, err)
		assert.Equal(t, 2, c.NumSold)
		env.assertLedgerConsistent(t, fnum)

		stored, err := env.reservations.GetByNumber(ctx, third.Number)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusWaitlisted, stored.Status)
		assert.Equal(t, int64(3), stored.CustomerID)
	})

	t.Run("満席の便はキャンセル待ちで販売数は変わらない", func(t *testing.T) {
		env := newEnv(t)
		fnum := fnumBase + 2
		env.seedFlight(t, fnum, 1, 0)

		_, err := env.booking.BookFlight(ctx, fnum, 1)
		require.NoError(t, err)

		res, err := env.booking.BookFlight(ctx, fnum, 2)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusWaitlisted, res.Status)

		c, err := env.flights.GetCapacity(ctx, fnum)
		require.NoError(t, err)
		assert.Equal(t, 1, c.NumSold)
	})

	t.Run("存在しない便はNotFoundで何も記録しない", func(t *testing.T) {
		env := newEnv(t)
		fnum := fnumBase + 3

		res, err := env.booking.BookFlight(ctx, fnum, 1)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, booking.ErrNotFound)

		list, err := env.reservations.ListByFlight(ctx, fnum)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("50件同時予約で10件だけ確定する", func(t *testing.T) {
		env := newEnv(t)
		fnum := fnumBase + 4
		env.seedFlight(t, fnum, 10, 0)

		const callers = 50
		results := make([]*reservation.Reservation, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		startCh := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-startCh
				results[i], errs[i] = env.booking.BookFlight(ctx, fnum, int64(i+1))
			}(i)
		}
		close(startCh)
		wg.Wait()

		confirmed, waitlisted := 0, 0
		numbers := make(map[int64]bool, callers)
		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			switch results[i].Status {
			case reservation.StatusConfirmed:
				confirmed++
			case reservation.StatusWaitlisted:
				waitlisted++
			}
			assert.False(t, numbers[results[i].Number], "予約番号が重複: %d", results[i].Number)
			numbers[results[i].Number] = true
		}

		assert.Equal(t, 10, confirmed)
		assert.Equal(t, 40, waitlisted)
		assert.Len(t, numbers, callers)

		c, err := env.flights.GetCapacity(ctx, fnum)
		require.NoError(t, err)
		assert.Equal(t, 10, c.NumSold)
		env.assertLedgerConsistent(t, fnum)

		list, err := env.reservations.ListByFlight(ctx, fnum)
		require.NoError(t, err)
		assert.Len(t, list, callers, "1回のコミットで予約は1件だけ")
	})

	t.Run("複数の便に同時予約しても予約番号は一意", func(t *testing.T) {
		env := newEnv(t)
		fnums := []int64{fnumBase + 5, fnumBase + 6, fnumBase + 7}
		for _, fnum := range fnums {
			env.seedFlight(t, fnum, 3, 0)
		}

		var mu sync.Mutex
		numbers := make(map[int64]bool)
		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := env.booking.BookFlight(ctx, fnums[i%len(fnums)], int64(i))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				assert.False(t, numbers[res.Number])
				numbers[res.Number] = true
			}(i)
		}
		wg.Wait()

		assert.Len(t, numbers, 30)
		for _, fnum := range fnums {
			env.assertLedgerConsistent(t, fnum)
		}

		report, err := env.booking.AuditConsistency(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.CounterMismatches)
		assert.Empty(t, report.Oversold)
	})
}

func TestBookingService_MemoryStore(t *testing.T) {
	runBookingScenarios(t, newMemoryEnv, 1000)
}

func TestBookingService_MemoryStore_InitialNumSoldIsReportedByAudit(t *testing.T) {
	ctx := context.Background()
	env := newMemoryEnv(t)
	env.seedFlight(t, 2101, 5, 2)
	env.seedFlight(t, 2102, 5, 0)

	_, err := env.booking.BookFlight(ctx, 2101, 1)
	require.NoError(t, err)

	report, err := env.booking.AuditConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, report.CounterMismatches, 1)
	assert.Equal(t, int64(2101), report.CounterMismatches[0].FlightID)
	assert.Equal(t, 3, report.CounterMismatches[0].NumSold)
	assert.Equal(t, 1, report.CounterMismatches[0].ConfirmedCount)
	assert.Empty(t, report.Oversold)
}

func TestBookingService_MemoryStore_TimeoutLeavesNoPartialWrites(t *testing.T) {
	store := memory.NewStore()
	env := newBookingEnv(store,
		memory.NewFlightRepository(store),
		memory.NewReservationRepository(store),
		memory.NewPlaneRepository(store),
		memory.NewCrewRepository(store),
	)
	env.seedFlight(t, 2001, 5, 0)

	service := NewBookingService(BookingDeps{
		TxManager:       store,
		FlightRepo:      memory.NewFlightRepository(store),
		ReservationRepo: memory.NewReservationRepository(store),
	}, BookingOptions{MaxRetries: 1, RetryDelay: time.Millisecond, Timeout: 30 * time.Millisecond})

	// 別のトランザクションが開いたままなので予約トランザクションを開始できない
	held, err := store.Begin(context.Background())
	require.NoError(t, err)

	_, err = service.BookFlight(context.Background(), 2001, 1)
	assert.ErrorIs(t, err, booking.ErrTimeout)
	require.NoError(t, held.Rollback())

	c, err := env.flights.GetCapacity(context.Background(), 2001)
	require.NoError(t, err)
	assert.Equal(t, 0, c.NumSold)

	list, err := env.reservations.ListByFlight(context.Background(), 2001)
	require.NoError(t, err)
	assert.Empty(t, list)
}
