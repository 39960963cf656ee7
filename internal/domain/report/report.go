// Package report は整備履歴の集計結果を表す
package report

import "context"

// PlaneRepairCount は機体ごとの修理件数
type PlaneRepairCount struct {
	PlaneID int64 `db:"plane_id" json:"plane_id"`
	Repairs int   `db:"repairs" json:"repairs"`
}

// YearRepairCount は年ごとの修理件数
type YearRepairCount struct {
	Year    int `db:"year" json:"year"`
	Repairs int `db:"repairs" json:"repairs"`
}

// Repository は集計クエリのインターフェース
type Repository interface {
	// RepairsPerPlane は機体ごとの修理件数を件数の多い順に返す
	RepairsPerPlane(ctx context.Context) ([]PlaneRepairCount, error)

	// RepairsPerYear は年ごとの修理件数を件数の少ない順に返す
	RepairsPerYear(ctx context.Context) ([]YearRepairCount, error)
}
