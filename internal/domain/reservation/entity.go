package reservation

import (
	"strings"
	"time"
)

// Status は予約の状態を表す（DB上は1文字のコード）
type Status string

const (
	StatusConfirmed  Status = "R"
	StatusWaitlisted Status = "W"
	StatusCancelled  Status = "C"
)

// Name はAPIで返す状態名
func (s Status) Name() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusWaitlisted:
		return "waitlisted"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsValid は定義済みの状態かを返す
func (s Status) IsValid() bool {
	return s == StatusConfirmed || s == StatusWaitlisted || s == StatusCancelled
}

// CountsAgainstCapacity は座席数に計上される状態かを返す
func (s Status) CountsAgainstCapacity() bool {
	return s == StatusConfirmed
}

// ParseStatus はコード（R/W/C）または状態名を大文字小文字を区別せずに解釈する
func ParseStatus(raw string) (Status, error) {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "r", "confirmed":
		return StatusConfirmed, nil
	case "w", "waitlisted":
		return StatusWaitlisted, nil
	case "c", "cancelled":
		return StatusCancelled, nil
	}
	return "", ErrInvalidStatus
}

// Reservation は予約台帳の1行を表す
// 状態は作成時に確定し、以後変更されない
type Reservation struct {
	Number     int64 // rnum
	CustomerID int64 // cid
	FlightID   int64 // fid
	Status     Status
	CreatedAt  time.Time
}

// NewReservation は新しい予約を作成する
func NewReservation(number, customerID, flightID int64, status Status) *Reservation {
	return &Reservation{
		Number:     number,
		CustomerID: customerID,
		FlightID:   flightID,
		Status:     status,
		CreatedAt:  time.Now(),
	}
}

// IsConfirmed は予約が確定しているかを返す
func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if r.Number <= 0 {
		return ErrReservationNumberRequired
	}
	if r.FlightID <= 0 {
		return ErrFlightIDRequired
	}
	if !r.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}
