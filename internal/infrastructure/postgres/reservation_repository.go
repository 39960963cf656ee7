package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

type reservationRow struct {
	Number     int64     `db:"rnum"`
	CustomerID int64     `db:"cid"`
	FlightID   int64     `db:"fid"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		Number:     r.Number,
		CustomerID: r.CustomerID,
		FlightID:   r.FlightID,
		Status:     reservation.Status(r.Status),
		CreatedAt:  r.CreatedAt,
	}
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// NextNumber はシーケンスから予約番号を採番する
// 採番した番号はロールバックされても再利用されない
func (r *ReservationRepository) NextNumber(ctx context.Context, tx transaction.Tx) (int64, error) {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return 0, errors.New("トランザクションが必要です")
	}

	var number int64
	if err := sqlxTx.GetContext(ctx, &number, `SELECT nextval('reservation_rnum_seq')`); err != nil {
		return 0, fmt.Errorf("予約番号採番に失敗: %w", translateError(err))
	}
	return number, nil
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return errors.New("トランザクションが必要です")
	}

	query := `INSERT INTO reservation (rnum, cid, fid, status, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := sqlxTx.ExecContext(ctx, query, res.Number, res.CustomerID, res.FlightID, string(res.Status), res.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			// 予約番号の重複は競合として扱い、呼び出し側で採番からやり直す
			return fmt.Errorf("%w: %w (rnum=%d)", booking.ErrConflict, reservation.ErrDuplicateNumber, res.Number)
		}
		return fmt.Errorf("予約作成に失敗: %w", translateError(err))
	}
	return nil
}

func (r *ReservationRepository) GetByNumber(ctx context.Context, number int64) (*reservation.Reservation, error) {
	var row reservationRow
	if err := r.db.GetContext(ctx, &row, `SELECT rnum, cid, fid, status, created_at FROM reservation WHERE rnum = $1`, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", translateError(err))
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) ListByFlight(ctx context.Context, flightID int64) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT rnum, cid, fid, status, created_at FROM reservation WHERE fid = $1 ORDER BY rnum`, flightID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", translateError(err))
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

func (r *ReservationRepository) CountByFlightAndStatus(ctx context.Context, flightID int64, status reservation.Status) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reservation WHERE fid = $1 AND status = $2`, flightID, string(status)); err != nil {
		return 0, fmt.Errorf("予約数集計に失敗: %w", translateError(err))
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

var _ reservation.Repository = (*ReservationRepository)(nil)
