package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/application"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/metrics"
)

// Auditor は台帳の整合性を照合するインターフェース
type Auditor interface {
	AuditConsistency(ctx context.Context) (*application.AuditReport, error)
}

// ConsistencyAuditor は定期的に num_sold と予約台帳を照合するワーカー
// 検出した違反はログとメトリクスに出すだけで、データは修正しない
type ConsistencyAuditor struct {
	auditor  Auditor
	metrics  *metrics.Metrics
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewConsistencyAuditor は新しい監査ワーカーを作成する
func NewConsistencyAuditor(a Auditor, m *metrics.Metrics, interval time.Duration) *ConsistencyAuditor {
	return &ConsistencyAuditor{
		auditor:  a,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start は監査を開始する（起動直後に1回実行）
func (w *ConsistencyAuditor) Start(ctx context.Context) {
	logger.Info("整合性監査ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	w.audit(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("整合性監査ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("整合性監査ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.audit(ctx)
		}
	}
}

// Stop は監査を停止し、実行中の照合が終わるまで待つ
func (w *ConsistencyAuditor) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *ConsistencyAuditor) audit(ctx context.Context) {
	log := logger.Get()

	report, err := w.auditor.AuditConsistency(ctx)
	if err != nil {
		log.Error("整合性監査に失敗", zap.Error(err))
		return
	}

	if w.metrics != nil {
		w.metrics.ConsistencyViolations.WithLabelValues("counter_mismatch").Set(float64(len(report.CounterMismatches)))
		w.metrics.ConsistencyViolations.WithLabelValues("oversold").Set(float64(len(report.Oversold)))
	}

	if report.OK() {
		log.Debug("整合性監査: 違反なし", zap.Int("flights", report.Checked))
		return
	}
	for _, s := range report.CounterMismatches {
		log.Error("販売数と確定予約数が一致しません",
			logger.FlightID(s.FlightID),
			zap.Int("num_sold", s.NumSold),
			zap.Int("confirmed", s.ConfirmedCount),
		)
	}
	for _, s := range report.Oversold {
		log.Error("座席数を超えて販売されています",
			logger.FlightID(s.FlightID),
			zap.Int("num_sold", s.NumSold),
			zap.Int("seats", s.Seats),
		)
	}
}
