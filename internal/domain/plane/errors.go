package plane

import (
	"errors"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
)

// Plane ドメインのエラー定義
var (
	ErrPlaneNotFound = booking.NotFound("機体が見つかりません")
	ErrMakeRequired  = errors.New("メーカーは必須です")
	ErrModelRequired = errors.New("機種は必須です")
	ErrInvalidAge    = errors.New("機齢は1以上である必要があります")
	ErrInvalidSeats  = errors.New("座席数は1以上500以下である必要があります")
)
