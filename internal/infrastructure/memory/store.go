// Package memory はプロセス内で完結するストア実装を提供する
// トランザクションは1本ずつ直列に実行され、書き込みはコミット時にまとめて反映される
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
)

// Repair は整備履歴の1件
type Repair struct {
	ID      int64
	Date    time.Time
	Code    string
	TechID  int64
	PlaneID int64
}

// Store はインメモリのデータストア
type Store struct {
	mu           sync.RWMutex
	planes       map[int64]*plane.Plane
	pilots       map[int64]*crew.Pilot
	technicians  map[int64]*crew.Technician
	flights      map[int64]*flight.Flight
	assignments  map[int64][]flight.Assignment
	reservations map[int64]*reservation.Reservation
	repairs      []Repair

	// 容量1のセマフォ。取得している間だけトランザクションが有効
	txSem chan struct{}

	rnumSeq atomic.Int64
	idSeq   atomic.Int64
}

// NewStore は空のストアを作成する
func NewStore() *Store {
	return &Store{
		planes:       make(map[int64]*plane.Plane),
		pilots:       make(map[int64]*crew.Pilot),
		technicians:  make(map[int64]*crew.Technician),
		flights:      make(map[int64]*flight.Flight),
		assignments:  make(map[int64][]flight.Assignment),
		reservations: make(map[int64]*reservation.Reservation),
		txSem:        make(chan struct{}, 1),
	}
}

// tx はコミットまで書き込みを保持するトランザクション
type tx struct {
	store     *Store
	soldDelta map[int64]int
	flights   []pendingFlight
	inserts   []*reservation.Reservation
	done      bool
}

type pendingFlight struct {
	flight     *flight.Flight
	assignment flight.Assignment
}

// Begin はトランザクションを開始する
// 他のトランザクションが終わるまで待ち、ctx の期限を過ぎた場合は ErrTimeout
func (s *Store) Begin(ctx context.Context) (transaction.Tx, error) {
	select {
	case s.txSem <- struct{}{}:
		return &tx{store: s, soldDelta: make(map[int64]int)}, nil
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}
}

// Commit は保持している書き込みを反映する
// 予約番号の重複や便名の重複があれば何も反映せずに失敗する
func (t *tx) Commit() error {
	if t.done {
		return errors.New("トランザクションは既に終了しています")
	}
	defer t.release()

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool, len(t.inserts))
	for _, r := range t.inserts {
		if _, exists := s.reservations[r.Number]; exists || seen[r.Number] {
			return fmt.Errorf("%w: %w (rnum=%d)", booking.ErrConflict, reservation.ErrDuplicateNumber, r.Number)
		}
		seen[r.Number] = true
	}
	for _, pf := range t.flights {
		if _, exists := s.flights[pf.flight.Number]; exists {
			return flight.ErrFlightAlreadyExists
		}
	}

	for _, pf := range t.flights {
		f := *pf.flight
		s.flights[f.Number] = &f
		s.assignments[f.Number] = append(s.assignments[f.Number], pf.assignment)
	}
	for number, delta := range t.soldDelta {
		s.flights[number].NumSold += delta
	}
	for _, r := range t.inserts {
		stored := *r
		s.reservations[r.Number] = &stored
	}
	return nil
}

// Rollback は書き込みを破棄する。コミット済みの場合は何もしない
func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func (t *tx) release() {
	t.done = true
	<-t.store.txSem
}

func unwrapTx(t transaction.Tx) (*tx, error) {
	mt, ok := t.(*tx)
	if !ok || mt == nil {
		return nil, errors.New("トランザクションが必要です")
	}
	if mt.done {
		return nil, errors.New("トランザクションは既に終了しています")
	}
	return mt, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", booking.ErrTimeout, err)
	}
	return err
}

// nextID はシリアル列の代わりに使う採番
func (s *Store) nextID() int64 {
	return s.idSeq.Add(1)
}

// AddRepair は整備履歴を登録する
func (s *Store) AddRepair(date time.Time, code string, techID, planeID int64) (*Repair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.technicians[techID]; !ok {
		return nil, fmt.Errorf("整備士が見つかりません: %d", techID)
	}
	if _, ok := s.planes[planeID]; !ok {
		return nil, plane.ErrPlaneNotFound
	}
	r := Repair{ID: s.nextID(), Date: date, Code: code, TechID: techID, PlaneID: planeID}
	s.repairs = append(s.repairs, r)
	return &r, nil
}

var _ transaction.Manager = (*Store)(nil)
