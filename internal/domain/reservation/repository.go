package reservation

import (
	"context"

	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// NextNumber は予約番号を採番する（トランザクション必須）
	// 採番はストア側のシーケンスで行い、同時呼び出しでも重複しない
	NextNumber(ctx context.Context, tx transaction.Tx) (int64, error)

	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByNumber は予約番号から予約を取得する
	GetByNumber(ctx context.Context, number int64) (*Reservation, error)

	// ListByFlight は便ごとの予約一覧を予約番号順に取得する
	ListByFlight(ctx context.Context, flightID int64) ([]*Reservation, error)

	// CountByFlightAndStatus は便と状態ごとの予約数を取得する
	CountByFlightAndStatus(ctx context.Context, flightID int64, status Status) (int, error)
}
