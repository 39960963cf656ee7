package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound       = errors.New("予約が見つかりません")
	ErrReservationNumberRequired = errors.New("予約番号は必須です")
	ErrFlightIDRequired          = errors.New("便名は必須です")
	ErrInvalidStatus             = errors.New("予約状態は R, W, C のいずれかである必要があります")
	ErrDuplicateNumber           = errors.New("予約番号が重複しています")
)
