package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-booking/internal/domain/report"
)

type ReportRepository struct{ db *sqlx.DB }

func NewReportRepository(db *sqlx.DB) *ReportRepository { return &ReportRepository{db: db} }

// RepairsPerPlane は修理履歴のない機体も0件として含める
func (r *ReportRepository) RepairsPerPlane(ctx context.Context) ([]report.PlaneRepairCount, error) {
	query := `
		SELECT p.id AS plane_id, COUNT(rp.rid) AS repairs
		FROM plane p
		LEFT JOIN repairs rp ON rp.plane_id = p.id
		GROUP BY p.id
		ORDER BY repairs DESC, p.id`

	result := []report.PlaneRepairCount{}
	if err := r.db.SelectContext(ctx, &result, query); err != nil {
		return nil, fmt.Errorf("機体別修理件数の集計に失敗: %w", translateError(err))
	}
	return result, nil
}

func (r *ReportRepository) RepairsPerYear(ctx context.Context) ([]report.YearRepairCount, error) {
	query := `
		SELECT EXTRACT(YEAR FROM repair_date)::int AS year, COUNT(*) AS repairs
		FROM repairs
		GROUP BY year
		ORDER BY repairs ASC, year`

	result := []report.YearRepairCount{}
	if err := r.db.SelectContext(ctx, &result, query); err != nil {
		return nil, fmt.Errorf("年別修理件数の集計に失敗: %w", translateError(err))
	}
	return result, nil
}

var _ report.Repository = (*ReportRepository)(nil)
