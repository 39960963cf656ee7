package crew

import "strings"

// Pilot はパイロットを表す
type Pilot struct {
	ID          int64
	FullName    string
	Nationality string
}

// Technician は整備士を表す
type Technician struct {
	ID       int64
	FullName string
}

// NewPilot は新しいパイロットを作成する
func NewPilot(fullName, nationality string) *Pilot {
	return &Pilot{FullName: strings.TrimSpace(fullName), Nationality: strings.TrimSpace(nationality)}
}

// Validate はパイロットの検証を行う
func (p *Pilot) Validate() error {
	if p.FullName == "" {
		return ErrFullNameRequired
	}
	if p.Nationality == "" {
		return ErrNationalityRequired
	}
	return nil
}

// NewTechnician は新しい整備士を作成する
func NewTechnician(fullName string) *Technician {
	return &Technician{FullName: strings.TrimSpace(fullName)}
}

// Validate は整備士の検証を行う
func (t *Technician) Validate() error {
	if t.FullName == "" {
		return ErrFullNameRequired
	}
	return nil
}
