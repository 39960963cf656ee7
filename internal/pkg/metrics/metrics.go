package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約の総数（status: confirmed, waitlisted, conflict, not_found, timeout, unavailable, error）
	BookingsTotal *prometheus.CounterVec

	// 予約トランザクションのリトライ回数
	BookingRetriesTotal prometheus.Counter

	// 予約トランザクション全体の所要時間（status）
	BookingDuration *prometheus.HistogramVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 整合性監査で検出された違反数（kind: counter_mismatch, oversold）
	ConsistencyViolations *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of flight booking attempts by outcome",
			},
			[]string{"status"},
		),
		BookingRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "booking_retries_total",
				Help: "Total number of booking transaction retries after a conflict",
			},
		),
		BookingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "booking_duration_seconds",
				Help:    "Time spent in BookFlight including retries",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"status"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		ConsistencyViolations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "consistency_violations",
				Help: "Flights violating the num_sold invariants at the last audit",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.BookingRetriesTotal,
		m.BookingDuration,
		m.DistributedLockDuration,
		m.ConsistencyViolations,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
