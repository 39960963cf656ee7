package plane

import "context"

// Repository は機体リポジトリのインターフェース
type Repository interface {
	// Create は新しい機体を作成し、採番されたIDを設定する
	Create(ctx context.Context, plane *Plane) error

	// GetByID はIDから機体を取得する
	GetByID(ctx context.Context, id int64) (*Plane, error)
}
