package flight

import (
	"strings"
	"time"
)

// Flight は便エンティティを表す
// NumSold は確定予約数と常に一致する
type Flight struct {
	Number           int64 // fnum
	Cost             int
	NumSold          int
	NumStops         int
	DepartureAt      time.Time
	ArrivalAt        time.Time
	DepartureAirport string
	ArrivalAirport   string
}

// Assignment は便に割り当てる機体とパイロット（FlightInfo）
type Assignment struct {
	FlightID int64
	PlaneID  int64
	PilotID  *int64
}

// Capacity は予約判定に使う便の座席状況
type Capacity struct {
	FlightID int64
	Seats    int
	NumSold  int
}

// SeatsAvailable は残り座席数を返す
func (c Capacity) SeatsAvailable() int {
	return c.Seats - c.NumSold
}

// LedgerSummary は整合性監査用の便ごとの集計
type LedgerSummary struct {
	FlightID       int64
	NumSold        int
	ConfirmedCount int
	Seats          int
}

// CounterMismatch は num_sold と確定予約数がずれているかを返す
func (s LedgerSummary) CounterMismatch() bool {
	return s.NumSold != s.ConfirmedCount
}

// Oversold は座席数を超えて販売されているかを返す
func (s LedgerSummary) Oversold() bool {
	return s.NumSold > s.Seats
}

// NewFlight は新しい便を作成する
func NewFlight(number int64, cost, numSold, numStops int, departureAt, arrivalAt time.Time, departureAirport, arrivalAirport string) *Flight {
	return &Flight{
		Number:           number,
		Cost:             cost,
		NumSold:          numSold,
		NumStops:         numStops,
		DepartureAt:      departureAt,
		ArrivalAt:        arrivalAt,
		DepartureAirport: strings.ToUpper(strings.TrimSpace(departureAirport)),
		ArrivalAirport:   strings.ToUpper(strings.TrimSpace(arrivalAirport)),
	}
}

// Validate は便の検証を行う
func (f *Flight) Validate() error {
	if f.Number <= 0 {
		return ErrInvalidFlightNumber
	}
	if f.Cost < 0 {
		return ErrInvalidCost
	}
	if f.NumSold < 0 {
		return ErrInvalidNumSold
	}
	if f.NumStops < 0 {
		return ErrInvalidNumStops
	}
	if f.DepartureAirport == "" || f.ArrivalAirport == "" {
		return ErrAirportRequired
	}
	if !f.ArrivalAt.After(f.DepartureAt) {
		return ErrInvalidFlightTime
	}
	return nil
}
