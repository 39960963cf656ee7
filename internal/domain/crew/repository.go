package crew

import "context"

// Repository は乗員・整備士リポジトリのインターフェース
type Repository interface {
	CreatePilot(ctx context.Context, pilot *Pilot) error
	GetPilotByID(ctx context.Context, id int64) (*Pilot, error)
	CreateTechnician(ctx context.Context, technician *Technician) error
}
