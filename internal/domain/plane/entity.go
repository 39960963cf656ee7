package plane

import "strings"

// 機体の座席数の範囲
const (
	MinSeats = 1
	MaxSeats = 500
)

// Plane は機体エンティティを表す
// Seats はこの機体を使う全ての便の座席上限になる
type Plane struct {
	ID    int64
	Make  string
	Model string
	Age   int
	Seats int
}

// NewPlane は新しい機体を作成する（IDは保存時に採番される）
func NewPlane(make, model string, age, seats int) *Plane {
	return &Plane{
		Make:  strings.TrimSpace(make),
		Model: strings.TrimSpace(model),
		Age:   age,
		Seats: seats,
	}
}

// Validate は機体の検証を行う
func (p *Plane) Validate() error {
	if p.Make == "" {
		return ErrMakeRequired
	}
	if p.Model == "" {
		return ErrModelRequired
	}
	if p.Age <= 0 {
		return ErrInvalidAge
	}
	if p.Seats < MinSeats || p.Seats > MaxSeats {
		return ErrInvalidSeats
	}
	return nil
}
