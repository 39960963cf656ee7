package flight

import (
	"errors"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
)

// Flight ドメインのエラー定義
var (
	ErrFlightNotFound      = booking.NotFound("便が見つかりません")
	ErrPlaneNotAssigned    = booking.NotFound("便に割り当てられた機体を一意に特定できません")
	ErrFlightAlreadyExists = errors.New("同じ便名が既に存在します")
	ErrInvalidFlightNumber = errors.New("便名は1以上である必要があります")
	ErrInvalidCost         = errors.New("運賃は0以上である必要があります")
	ErrInvalidNumSold      = errors.New("販売済み座席数は0以上である必要があります")
	ErrInvalidNumStops     = errors.New("経由地数は0以上である必要があります")
	ErrAirportRequired     = errors.New("出発空港と到着空港は必須です")
	ErrInvalidFlightTime   = errors.New("到着時刻は出発時刻より後である必要があります")
	ErrOversold            = errors.New("販売済み座席数が機体の座席数を超えています")
)
