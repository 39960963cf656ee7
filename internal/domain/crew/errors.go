package crew

import (
	"errors"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
)

var (
	ErrPilotNotFound       = booking.NotFound("パイロットが見つかりません")
	ErrFullNameRequired    = errors.New("氏名は必須です")
	ErrNationalityRequired = errors.New("国籍は必須です")
)
