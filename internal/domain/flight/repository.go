package flight

import (
	"context"

	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

// Repository は便リポジトリのインターフェース
type Repository interface {
	// Create は便と機体割り当てを作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, flight *Flight, assignment Assignment) error

	// GetByID は便名から便を取得する
	GetByID(ctx context.Context, number int64) (*Flight, error)

	// GetCapacityForUpdate は便の行をロックした上で座席状況を取得する（トランザクション必須）
	// 同じ便に対する他の予約トランザクションはコミットまで待たされる
	GetCapacityForUpdate(ctx context.Context, tx transaction.Tx, number int64) (*Capacity, error)

	// GetCapacity はロックせずに座席状況を取得する（参照用）
	GetCapacity(ctx context.Context, number int64) (*Capacity, error)

	// IncrementSold は販売済み座席数を1増やす（トランザクション必須）
	IncrementSold(ctx context.Context, tx transaction.Tx, number int64) error

	// ListLedgerSummaries は全便の販売数・確定予約数・座席数を集計する
	ListLedgerSummaries(ctx context.Context) ([]LedgerSummary, error)
}
