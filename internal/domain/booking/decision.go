// Package booking は座席の空き状況から予約ステータスを決定する
package booking

import (
	"time"

	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
)

// Decide は空席数から予約ステータスを決定する
// 空席が1以上なら確定、0以下（負数を含む）ならキャンセル待ち
func Decide(seatsAvailable int) reservation.Status {
	if seatsAvailable > 0 {
		return reservation.StatusConfirmed
	}
	return reservation.StatusWaitlisted
}

// DecidedEvent は予約確定後に外部へ通知するイベント
type DecidedEvent struct {
	ReservationNumber int64     `json:"rnum"`
	CustomerID        int64     `json:"customer_id"`
	FlightID          int64     `json:"flight_id"`
	Status            string    `json:"status"`
	StatusCode        string    `json:"status_code"`
	SeatsAvailable    int       `json:"seats_available"`
	DecidedAt         time.Time `json:"decided_at"`
}

// NewDecidedEvent は予約と判定時点の空席数からイベントを組み立てる
func NewDecidedEvent(r *reservation.Reservation, seatsAvailable int) DecidedEvent {
	return DecidedEvent{
		ReservationNumber: r.Number,
		CustomerID:        r.CustomerID,
		FlightID:          r.FlightID,
		Status:            r.Status.Name(),
		StatusCode:        string(r.Status),
		SeatsAvailable:    seatsAvailable,
		DecidedAt:         r.CreatedAt,
	}
}
