package memory

import (
	"context"
	"sort"

	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/report"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

// FlightRepository は便リポジトリのインメモリ実装
type FlightRepository struct{ s *Store }

func NewFlightRepository(s *Store) *FlightRepository { return &FlightRepository{s: s} }

func (r *FlightRepository) Create(ctx context.Context, t transaction.Tx, f *flight.Flight, a flight.Assignment) error {
	mt, err := unwrapTx(t)
	if err != nil {
		return err
	}

	r.s.mu.RLock()
	_, exists := r.s.flights[f.Number]
	r.s.mu.RUnlock()
	if exists {
		return flight.ErrFlightAlreadyExists
	}
	for _, pf := range mt.flights {
		if pf.flight.Number == f.Number {
			return flight.ErrFlightAlreadyExists
		}
	}

	copied := *f
	mt.flights = append(mt.flights, pendingFlight{flight: &copied, assignment: a})
	return nil
}

func (r *FlightRepository) GetByID(ctx context.Context, number int64) (*flight.Flight, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.flights[number]
	if !ok {
		return nil, flight.ErrFlightNotFound
	}
	copied := *f
	return &copied, nil
}

// GetCapacityForUpdate はトランザクション内の未反映の販売数も含めて座席状況を返す
// トランザクションは直列化されているため行ロックは不要
func (r *FlightRepository) GetCapacityForUpdate(ctx context.Context, t transaction.Tx, number int64) (*flight.Capacity, error) {
	mt, err := unwrapTx(t)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	c, err := r.GetCapacity(ctx, number)
	if err != nil {
		return nil, err
	}
	c.NumSold += mt.soldDelta[number]
	return c, nil
}

func (r *FlightRepository) GetCapacity(ctx context.Context, number int64) (*flight.Capacity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.flights[number]
	if !ok {
		return nil, flight.ErrFlightNotFound
	}
	seats, err := r.s.seatsLocked(number)
	if err != nil {
		return nil, err
	}
	return &flight.Capacity{FlightID: number, Seats: seats, NumSold: f.NumSold}, nil
}

func (r *FlightRepository) IncrementSold(ctx context.Context, t transaction.Tx, number int64) error {
	mt, err := unwrapTx(t)
	if err != nil {
		return err
	}

	r.s.mu.RLock()
	_, ok := r.s.flights[number]
	r.s.mu.RUnlock()
	if !ok {
		return flight.ErrFlightNotFound
	}
	mt.soldDelta[number]++
	return nil
}

func (r *FlightRepository) ListLedgerSummaries(ctx context.Context) ([]flight.LedgerSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	confirmed := make(map[int64]int)
	for _, res := range r.s.reservations {
		if res.Status.CountsAgainstCapacity() {
			confirmed[res.FlightID]++
		}
	}

	result := make([]flight.LedgerSummary, 0, len(r.s.flights))
	for number, f := range r.s.flights {
		seats, _ := r.s.seatsLocked(number)
		result = append(result, flight.LedgerSummary{
			FlightID:       number,
			NumSold:        f.NumSold,
			ConfirmedCount: confirmed[number],
			Seats:          seats,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FlightID < result[j].FlightID })
	return result, nil
}

// seatsLocked は便に割り当てられた機体の座席数を返す（mu を保持して呼ぶ）
func (s *Store) seatsLocked(number int64) (int, error) {
	assignments := s.assignments[number]
	if len(assignments) != 1 {
		return 0, flight.ErrPlaneNotAssigned
	}
	p, ok := s.planes[assignments[0].PlaneID]
	if !ok {
		return 0, flight.ErrPlaneNotAssigned
	}
	return p.Seats, nil
}

// ReservationRepository は予約リポジトリのインメモリ実装
type ReservationRepository struct{ s *Store }

func NewReservationRepository(s *Store) *ReservationRepository {
	return &ReservationRepository{s: s}
}

// NextNumber はアトミックなカウンタで採番する
// ロールバックされた番号は再利用しない
func (r *ReservationRepository) NextNumber(ctx context.Context, t transaction.Tx) (int64, error) {
	if _, err := unwrapTx(t); err != nil {
		return 0, err
	}
	return r.s.rnumSeq.Add(1), nil
}

func (r *ReservationRepository) Create(ctx context.Context, t transaction.Tx, res *reservation.Reservation) error {
	mt, err := unwrapTx(t)
	if err != nil {
		return err
	}

	r.s.mu.RLock()
	_, ok := r.s.flights[res.FlightID]
	r.s.mu.RUnlock()
	if !ok {
		return flight.ErrFlightNotFound
	}

	copied := *res
	mt.inserts = append(mt.inserts, &copied)
	return nil
}

func (r *ReservationRepository) GetByNumber(ctx context.Context, number int64) (*reservation.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[number]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *ReservationRepository) ListByFlight(ctx context.Context, flightID int64) ([]*reservation.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []*reservation.Reservation{}
	for _, res := range r.s.reservations {
		if res.FlightID == flightID {
			copied := *res
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *ReservationRepository) CountByFlightAndStatus(ctx context.Context, flightID int64, status reservation.Status) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, res := range r.s.reservations {
		if res.FlightID == flightID && res.Status == status {
			count++
		}
	}
	return count, nil
}

// PlaneRepository は機体リポジトリのインメモリ実装
type PlaneRepository struct{ s *Store }

func NewPlaneRepository(s *Store) *PlaneRepository { return &PlaneRepository{s: s} }

func (r *PlaneRepository) Create(ctx context.Context, p *plane.Plane) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.nextID()
	copied := *p
	r.s.planes[p.ID] = &copied
	return nil
}

func (r *PlaneRepository) GetByID(ctx context.Context, id int64) (*plane.Plane, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.planes[id]
	if !ok {
		return nil, plane.ErrPlaneNotFound
	}
	copied := *p
	return &copied, nil
}

// CrewRepository はパイロット・整備士リポジトリのインメモリ実装
type CrewRepository struct{ s *Store }

func NewCrewRepository(s *Store) *CrewRepository { return &CrewRepository{s: s} }

func (r *CrewRepository) CreatePilot(ctx context.Context, p *crew.Pilot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p.ID = r.s.nextID()
	copied := *p
	r.s.pilots[p.ID] = &copied
	return nil
}

func (r *CrewRepository) GetPilotByID(ctx context.Context, id int64) (*crew.Pilot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pilots[id]
	if !ok {
		return nil, crew.ErrPilotNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *CrewRepository) CreateTechnician(ctx context.Context, t *crew.Technician) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t.ID = r.s.nextID()
	copied := *t
	r.s.technicians[t.ID] = &copied
	return nil
}

// ReportRepository は集計クエリのインメモリ実装
type ReportRepository struct{ s *Store }

func NewReportRepository(s *Store) *ReportRepository { return &ReportRepository{s: s} }

func (r *ReportRepository) RepairsPerPlane(ctx context.Context) ([]report.PlaneRepairCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[int64]int, len(r.s.planes))
	for id := range r.s.planes {
		counts[id] = 0
	}
	for _, rp := range r.s.repairs {
		counts[rp.PlaneID]++
	}

	result := make([]report.PlaneRepairCount, 0, len(counts))
	for id, n := range counts {
		result = append(result, report.PlaneRepairCount{PlaneID: id, Repairs: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Repairs != result[j].Repairs {
			return result[i].Repairs > result[j].Repairs
		}
		return result[i].PlaneID < result[j].PlaneID
	})
	return result, nil
}

func (r *ReportRepository) RepairsPerYear(ctx context.Context) ([]report.YearRepairCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[int]int)
	for _, rp := range r.s.repairs {
		counts[rp.Date.Year()]++
	}

	result := make([]report.YearRepairCount, 0, len(counts))
	for year, n := range counts {
		result = append(result, report.YearRepairCount{Year: year, Repairs: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Repairs != result[j].Repairs {
			return result[i].Repairs < result[j].Repairs
		}
		return result[i].Year < result[j].Year
	})
	return result, nil
}

var (
	_ flight.Repository      = (*FlightRepository)(nil)
	_ reservation.Repository = (*ReservationRepository)(nil)
	_ plane.Repository       = (*PlaneRepository)(nil)
	_ crew.Repository        = (*CrewRepository)(nil)
	_ report.Repository      = (*ReportRepository)(nil)
)
