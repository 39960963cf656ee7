package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
)

type planeRow struct {
	ID    int64  `db:"id"`
	Make  string `db:"make"`
	Model string `db:"model"`
	Age   int    `db:"age"`
	Seats int    `db:"seats"`
}

func (r *planeRow) toEntity() *plane.Plane {
	return &plane.Plane{ID: r.ID, Make: r.Make, Model: r.Model, Age: r.Age, Seats: r.Seats}
}

type PlaneRepository struct{ db *sqlx.DB }

func NewPlaneRepository(db *sqlx.DB) *PlaneRepository { return &PlaneRepository{db: db} }

// Create は機体を作成する（IDはシリアル列で採番）
func (r *PlaneRepository) Create(ctx context.Context, p *plane.Plane) error {
	query := `INSERT INTO plane (make, model, age, seats) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, p.Make, p.Model, p.Age, p.Seats).Scan(&p.ID); err != nil {
		return fmt.Errorf("機体作成に失敗: %w", translateError(err))
	}
	return nil
}

func (r *PlaneRepository) GetByID(ctx context.Context, id int64) (*plane.Plane, error) {
	var row planeRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, make, model, age, seats FROM plane WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, plane.ErrPlaneNotFound
		}
		return nil, fmt.Errorf("機体取得に失敗: %w", translateError(err))
	}
	return row.toEntity(), nil
}

var _ plane.Repository = (*PlaneRepository)(nil)
