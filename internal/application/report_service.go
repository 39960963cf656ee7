package application

import (
	"context"

	"github.com/sanosuguru/go-flight-booking/internal/domain/report"
)

// ReportService は整備履歴の集計を提供する
type ReportService struct {
	reportRepo report.Repository
}

func NewReportService(rr report.Repository) *ReportService {
	return &ReportService{reportRepo: rr}
}

// RepairsPerPlane は機体ごとの修理件数を件数の多い順に返す
func (s *ReportService) RepairsPerPlane(ctx context.Context) ([]report.PlaneRepairCount, error) {
	return s.reportRepo.RepairsPerPlane(ctx)
}

// RepairsPerYear は年ごとの修理件数を件数の少ない順に返す
func (s *ReportService) RepairsPerYear(ctx context.Context) ([]report.YearRepairCount, error) {
	return s.reportRepo.RepairsPerYear(ctx)
}
