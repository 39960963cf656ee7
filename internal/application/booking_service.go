package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/config"
	"github.com/sanosuguru/go-flight-booking/internal/domain/booking"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-flight-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/metrics"
)

// EventPublisher は予約判定イベントの送信先
type EventPublisher interface {
	PublishBookingDecided(ctx context.Context, event booking.DecidedEvent) error
}

// BookingOptions は予約トランザクションのリトライとタイムアウトの設定
type BookingOptions struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	LockTTL    time.Duration
}

// BookingOptionsFromConfig は設定から BookingOptions を作成する
func BookingOptionsFromConfig(cfg config.BookingConfig) BookingOptions {
	return BookingOptions{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.Timeout,
		LockTTL:    cfg.LockTTL,
	}
}

// BookingDeps は BookingService の依存関係
// LockManager, Cache, Publisher, Metrics は nil でもよい
type BookingDeps struct {
	TxManager       transaction.Manager
	FlightRepo      flight.Repository
	ReservationRepo reservation.Repository
	LockManager     redisinfra.LockManagerInterface
	Cache           redisinfra.AvailabilityCacheInterface
	Publisher       EventPublisher
	Metrics         *metrics.Metrics
}

// BookingService は便の予約を1つのトランザクションで確定させる
type BookingService struct {
	txManager       transaction.Manager
	flightRepo      flight.Repository
	reservationRepo reservation.Repository
	lockManager     redisinfra.LockManagerInterface
	cache           redisinfra.AvailabilityCacheInterface
	publisher       EventPublisher
	metrics         *metrics.Metrics
	opts            BookingOptions
}

func NewBookingService(deps BookingDeps, opts BookingOptions) *BookingService {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	return &BookingService{
		txManager:       deps.TxManager,
		flightRepo:      deps.FlightRepo,
		reservationRepo: deps.ReservationRepo,
		lockManager:     deps.LockManager,
		cache:           deps.Cache,
		publisher:       deps.Publisher,
		metrics:         deps.Metrics,
		opts:            opts,
	}
}

// BookFlight は空席があれば確定、なければキャンセル待ちとして予約を記録する
//
// 便の行ロック・販売数の更新・予約番号の採番・予約の挿入は1つのトランザクションで行い、
// 競合（シリアライズ失敗、デッドロック、ロック待ち超過、予約番号の重複）の場合は
// MaxRetries 回まで最初からやり直す。customerID は検証しない。
func (s *BookingService) BookFlight(ctx context.Context, flightID, customerID int64) (*reservation.Reservation, error) {
	start := time.Now()
	log := logger.ForFlight(flightID, customerID)

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	if s.lockManager != nil {
		release, err := s.lockFlight(ctx, flightID)
		if err != nil {
			s.observe(start, outcomeOf(err))
			return nil, err
		}
		defer release()
	}

	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if s.metrics != nil {
				s.metrics.BookingRetriesTotal.Inc()
			}
			log.Warn("予約トランザクションを再試行", zap.Int("attempt", attempt), zap.Error(lastErr))
			if err := sleepContext(ctx, s.opts.RetryDelay*time.Duration(attempt)); err != nil {
				err = classify(ctx, err)
				s.observe(start, outcomeOf(err))
				return nil, err
			}
		}

		res, seatsAvailable, err := s.attempt(ctx, flightID, customerID)
		if err == nil {
			log.Debug("予約を記録",
				logger.ReservationNumber(res.Number),
				zap.String("status", res.Status.Name()),
				zap.Int("seats_available", seatsAvailable),
				zap.Int("attempt", attempt),
			)
			s.afterCommit(ctx, log, res, seatsAvailable)
			s.observe(start, res.Status.Name())
			return res, nil
		}

		err = classify(ctx, err)
		if !errors.Is(err, booking.ErrConflict) {
			s.observe(start, outcomeOf(err))
			return nil, err
		}
		lastErr = err
	}

	s.observe(start, "conflict")
	return nil, fmt.Errorf("%d回の再試行後も競合が解消しません: %w", s.opts.MaxRetries, lastErr)
}

// attempt は予約トランザクションを1回実行する。失敗した場合は必ずロールバックする
func (s *BookingService) attempt(ctx context.Context, flightID, customerID int64) (res *reservation.Reservation, seatsAvailable int, err error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	capacity, err := s.flightRepo.GetCapacityForUpdate(ctx, tx, flightID)
	if err != nil {
		return nil, 0, err
	}

	seatsAvailable = capacity.SeatsAvailable()
	status := booking.Decide(seatsAvailable)

	if status == reservation.StatusConfirmed {
		if err = s.flightRepo.IncrementSold(ctx, tx, flightID); err != nil {
			return nil, 0, err
		}
	}

	number, err := s.reservationRepo.NextNumber(ctx, tx)
	if err != nil {
		return nil, 0, err
	}

	res = reservation.NewReservation(number, customerID, flightID, status)
	if err = res.Validate(); err != nil {
		return nil, 0, err
	}
	if err = s.reservationRepo.Create(ctx, tx, res); err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("コミットに失敗: %w", err)
	}
	return res, seatsAvailable, nil
}

// lockFlight は便の分散ロックを取得し、解放関数を返す
// Redis 自体に接続できない場合はDBの行ロックだけで続行する
func (s *BookingService) lockFlight(ctx context.Context, flightID int64) (func(), error) {
	lockStart := time.Now()
	lock, err := s.lockManager.LockFlight(ctx, flightID, s.opts.LockTTL)
	s.observeLock("acquire", lockStart, err)

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: 便のロックを取得できません: %v", booking.ErrTimeout, err)
		}
		logger.Warn("分散ロックを取得できないためDBロックのみで続行", logger.FlightID(flightID), zap.Error(err))
		return func() {}, nil
	}

	return func() {
		// 呼び出し元の ctx が期限切れでも解放できるよう独立した ctx を使う
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		releaseStart := time.Now()
		err := lock.Release(releaseCtx)
		s.observeLock("release", releaseStart, err)
		if err != nil {
			logger.Warn("分散ロックの解放に失敗", logger.FlightID(flightID), zap.Error(err))
		}
	}, nil
}

// afterCommit はコミット後の副作用を実行する。失敗しても予約結果は変えない
func (s *BookingService) afterCommit(ctx context.Context, log *zap.Logger, res *reservation.Reservation, seatsAvailable int) {
	// ctx がタイムアウト直前でも副作用を試みる
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if s.cache != nil && res.IsConfirmed() {
		if err := s.cache.Invalidate(sideCtx, res.FlightID); err != nil {
			log.Warn("空席数キャッシュの無効化に失敗", zap.Error(err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBookingDecided(sideCtx, booking.NewDecidedEvent(res, seatsAvailable)); err != nil {
			log.Warn("予約判定イベントの送信に失敗", logger.ReservationNumber(res.Number), zap.Error(err))
		}
	}
}

func (s *BookingService) observe(start time.Time, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	s.metrics.BookingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (s *BookingService) observeLock(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	s.metrics.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// AuditReport は整合性監査の結果
type AuditReport struct {
	Checked           int
	CounterMismatches []flight.LedgerSummary
	Oversold          []flight.LedgerSummary
}

// OK は違反がないかを返す
func (r *AuditReport) OK() bool {
	return len(r.CounterMismatches) == 0 && len(r.Oversold) == 0
}

// AuditConsistency は全便について num_sold と確定予約数・座席数を照合する
// 読み取りのみでデータは修正しない
func (s *BookingService) AuditConsistency(ctx context.Context) (*AuditReport, error) {
	summaries, err := s.flightRepo.ListLedgerSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("台帳の集計に失敗: %w", err)
	}

	result := &AuditReport{Checked: len(summaries)}
	for _, sum := range summaries {
		if sum.CounterMismatch() {
			result.CounterMismatches = append(result.CounterMismatches, sum)
		}
		if sum.Oversold() {
			result.Oversold = append(result.Oversold, sum)
		}
	}
	return result, nil
}

// classify は ctx の期限切れをタイムアウトとして扱う
func classify(ctx context.Context, err error) error {
	if errors.Is(err, booking.ErrTimeout) || errors.Is(err, booking.ErrNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", booking.ErrTimeout, err)
	}
	return err
}

// outcomeOf はメトリクスのラベルに使う結果名を返す
func outcomeOf(err error) string {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return "not_found"
	case errors.Is(err, booking.ErrConflict):
		return "conflict"
	case errors.Is(err, booking.ErrTimeout):
		return "timeout"
	case errors.Is(err, booking.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
