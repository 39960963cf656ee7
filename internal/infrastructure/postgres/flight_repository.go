package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

type flightRow struct {
	Number           int64     `db:"fnum"`
	Cost             int       `db:"cost"`
	NumSold          int       `db:"num_sold"`
	NumStops         int       `db:"num_stops"`
	DepartureAt      time.Time `db:"actual_departure_date"`
	ArrivalAt        time.Time `db:"actual_arrival_date"`
	ArrivalAirport   string    `db:"arrival_airport"`
	DepartureAirport string    `db:"departure_airport"`
}

func (r *flightRow) toEntity() *flight.Flight {
	return flight.NewFlight(r.Number, r.Cost, r.NumSold, r.NumStops, r.DepartureAt, r.ArrivalAt, r.DepartureAirport, r.ArrivalAirport)
}

type capacityRow struct {
	Seats int `db:"seats"`
}

type ledgerRow struct {
	FlightID       int64 `db:"fnum"`
	NumSold        int   `db:"num_sold"`
	ConfirmedCount int   `db:"confirmed_count"`
	Seats          int   `db:"seats"`
}

type FlightRepository struct{ db *sqlx.DB }

func NewFlightRepository(db *sqlx.DB) *FlightRepository { return &FlightRepository{db: db} }

const flightColumns = `fnum, cost, num_sold, num_stops, actual_departure_date, actual_arrival_date, arrival_airport, departure_airport`

func (r *FlightRepository) Create(ctx context.Context, tx transaction.Tx, f *flight.Flight, a flight.Assignment) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが必要です")
	}

	query := `INSERT INTO flight (` + flightColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := sqlxTx.ExecContext(ctx, query, f.Number, f.Cost, f.NumSold, f.NumStops, f.DepartureAt, f.ArrivalAt, f.ArrivalAirport, f.DepartureAirport); err != nil {
		if isUniqueViolation(err) {
			return flight.ErrFlightAlreadyExists
		}
		return fmt.Errorf("便作成に失敗: %w", translateError(err))
	}

	if _, err := sqlxTx.ExecContext(ctx, `INSERT INTO flight_info (flight_id, plane_id, pilot_id) VALUES ($1, $2, $3)`, f.Number, a.PlaneID, a.PilotID); err != nil {
		return fmt.Errorf("機体割り当て作成に失敗: %w", translateError(err))
	}
	return nil
}

func (r *FlightRepository) GetByID(ctx context.Context, number int64) (*flight.Flight, error) {
	var row flightRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+flightColumns+` FROM flight WHERE fnum = $1`, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("便取得に失敗: %w", translateError(err))
	}
	return row.toEntity(), nil
}

// GetCapacityForUpdate は便の行を FOR UPDATE でロックしてから機体の座席数を読む
func (r *FlightRepository) GetCapacityForUpdate(ctx context.Context, tx transaction.Tx, number int64) (*flight.Capacity, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return nil, errors.New("トランザクションが必要です")
	}

	var numSold int
	if err := sqlxTx.GetContext(ctx, &numSold, `SELECT num_sold FROM flight WHERE fnum = $1 FOR UPDATE`, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("便のロックに失敗: %w", translateError(err))
	}

	seats, err := r.selectSeats(ctx, sqlxTx, number)
	if err != nil {
		return nil, err
	}
	return &flight.Capacity{FlightID: number, Seats: seats, NumSold: numSold}, nil
}

func (r *FlightRepository) GetCapacity(ctx context.Context, number int64) (*flight.Capacity, error) {
	var numSold int
	if err := r.db.GetContext(ctx, &numSold, `SELECT num_sold FROM flight WHERE fnum = $1`, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("座席状況取得に失敗: %w", translateError(err))
	}

	seats, err := r.selectSeats(ctx, r.db, number)
	if err != nil {
		return nil, err
	}
	return &flight.Capacity{FlightID: number, Seats: seats, NumSold: numSold}, nil
}

// selectSeats は便に割り当てられた機体の座席数を取得する
// 割り当てがちょうど1件でない場合は ErrPlaneNotAssigned
func (r *FlightRepository) selectSeats(ctx context.Context, q sqlx.QueryerContext, number int64) (int, error) {
	var rows []capacityRow
	query := `SELECT p.seats FROM flight_info fi JOIN plane p ON p.id = fi.plane_id WHERE fi.flight_id = $1`
	if err := sqlx.SelectContext(ctx, q, &rows, query, number); err != nil {
		return 0, fmt.Errorf("機体座席数取得に失敗: %w", translateError(err))
	}
	if len(rows) != 1 {
		return 0, flight.ErrPlaneNotAssigned
	}
	return rows[0].Seats, nil
}

func (r *FlightRepository) IncrementSold(ctx context.Context, tx transaction.Tx, number int64) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが必要です")
	}

	result, err := sqlxTx.ExecContext(ctx, `UPDATE flight SET num_sold = num_sold + 1 WHERE fnum = $1`, number)
	if err != nil {
		return fmt.Errorf("販売数更新に失敗: %w", translateError(err))
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return flight.ErrFlightNotFound
	}
	return nil
}

func (r *FlightRepository) ListLedgerSummaries(ctx context.Context) ([]flight.LedgerSummary, error) {
	query := `
		SELECT f.fnum, f.num_sold,
		       (SELECT COUNT(*) FROM reservation r WHERE r.fid = f.fnum AND r.status = 'R') AS confirmed_count,
		       COALESCE((SELECT MIN(p.seats) FROM flight_info fi JOIN plane p ON p.id = fi.plane_id WHERE fi.flight_id = f.fnum), 0) AS seats
		FROM flight f
		ORDER BY f.fnum`

	var rows []ledgerRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("台帳集計に失敗: %w", translateError(err))
	}

	result := make([]flight.LedgerSummary, len(rows))
	for i, row := range rows {
		result[i] = flight.LedgerSummary{
			FlightID:       row.FlightID,
			NumSold:        row.NumSold,
			ConfirmedCount: row.ConfirmedCount,
			Seats:          row.Seats,
		}
	}
	return result, nil
}

var _ flight.Repository = (*FlightRepository)(nil)
