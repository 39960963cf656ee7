package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
)

type pilotRow struct {
	ID          int64  `db:"id"`
	FullName    string `db:"fullname"`
	Nationality string `db:"nationality"`
}

type CrewRepository struct{ db *sqlx.DB }

func NewCrewRepository(db *sqlx.DB) *CrewRepository { return &CrewRepository{db: db} }

func (r *CrewRepository) CreatePilot(ctx context.Context, p *crew.Pilot) error {
	query := `INSERT INTO pilot (fullname, nationality) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, p.FullName, p.Nationality).Scan(&p.ID); err != nil {
		return fmt.Errorf("パイロット作成に失敗: %w", translateError(err))
	}
	return nil
}

func (r *CrewRepository) GetPilotByID(ctx context.Context, id int64) (*crew.Pilot, error) {
	var row pilotRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, fullname, nationality FROM pilot WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, crew.ErrPilotNotFound
		}
		return nil, fmt.Errorf("パイロット取得に失敗: %w", translateError(err))
	}
	return &crew.Pilot{ID: row.ID, FullName: row.FullName, Nationality: row.Nationality}, nil
}

func (r *CrewRepository) CreateTechnician(ctx context.Context, t *crew.Technician) error {
	if err := r.db.QueryRowContext(ctx, `INSERT INTO technician (full_name) VALUES ($1) RETURNING id`, t.FullName).Scan(&t.ID); err != nil {
		return fmt.Errorf("整備士作成に失敗: %w", translateError(err))
	}
	return nil
}

var _ crew.Repository = (*CrewRepository)(nil)
