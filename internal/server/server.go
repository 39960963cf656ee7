// Package server は設定から依存関係を組み立て、HTTPルーティングを構成する
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/api/handler"
	"github.com/sanosuguru/go-flight-booking/internal/application"
	"github.com/sanosuguru/go-flight-booking/internal/config"
	"github.com/sanosuguru/go-flight-booking/internal/domain/crew"
	"github.com/sanosuguru/go-flight-booking/internal/domain/flight"
	"github.com/sanosuguru/go-flight-booking/internal/domain/plane"
	"github.com/sanosuguru/go-flight-booking/internal/domain/report"
	"github.com/sanosuguru/go-flight-booking/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-flight-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-flight-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-flight-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/metrics"
)

// 対応するストア
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("未対応の STORE_DRIVER です")

// Components は起動に必要なサービスと接続をまとめたもの
type Components struct {
	Booking *application.BookingService
	Fleet   *application.FleetService
	Reports *application.ReportService
	Metrics *metrics.Metrics

	// ストアごとの実体（使わない方は nil）
	DB     *sqlx.DB
	Memory *memory.Store

	Redis     *goredis.Client
	Publisher *rabbitmq.Publisher

	checks map[string]handler.HealthCheck
}

type repositories struct {
	tx           transaction.Manager
	flights      flight.Repository
	reservations reservation.Repository
	planes       plane.Repository
	crew         crew.Repository
	reports      report.Repository
}

// Build は設定に従ってストア・Redis・RabbitMQ に接続し、サービスを組み立てる
// Redis と RabbitMQ は任意で、接続できない場合は警告を出して無効のまま起動する
func Build(cfg *config.Config, m *metrics.Metrics) (*Components, error) {
	c := &Components{Metrics: m, checks: map[string]handler.HealthCheck{}}

	repos, err := c.openStore(cfg)
	if err != nil {
		return nil, err
	}

	deps := application.BookingDeps{
		TxManager:       repos.tx,
		FlightRepo:      repos.flights,
		ReservationRepo: repos.reservations,
		Metrics:         m,
	}
	var cache redisinfra.AvailabilityCacheInterface

	if cfg.Redis.Enabled {
		rc, err := redisinfra.NewClient(&redisinfra.Config{
			Host: cfg.Redis.Host, Port: cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("Redisに接続できないため分散ロックとキャッシュを無効にします", zap.Error(err))
		} else {
			c.Redis = rc
			deps.LockManager = redisinfra.NewLockManager(rc)
			cache = redisinfra.NewAvailabilityCache(rc, redisinfra.DefaultAvailabilityTTL)
			deps.Cache = cache
			c.checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, rc) }
		}
	}

	if cfg.RabbitMQ.Enabled {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			logger.Warn("RabbitMQに接続できないため予約通知を無効にします", zap.Error(err))
		} else {
			c.Publisher = p
			deps.Publisher = p
		}
	}

	c.Booking = application.NewBookingService(deps, application.BookingOptionsFromConfig(cfg.Booking))
	c.Fleet = application.NewFleetService(repos.tx, repos.planes, repos.crew, repos.flights, repos.reservations, cache)
	c.Reports = application.NewReportService(repos.reports)

	logger.Info("依存関係を初期化しました",
		zap.String("store", cfg.Database.Driver),
		zap.Bool("redis", c.Redis != nil),
		zap.Bool("rabbitmq", c.Publisher != nil),
	)
	return c, nil
}

func (c *Components) openStore(cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case DriverMemory:
		s := memory.NewStore()
		c.Memory = s
		return &repositories{
			tx:           s,
			flights:      memory.NewFlightRepository(s),
			reservations: memory.NewReservationRepository(s),
			planes:       memory.NewPlaneRepository(s),
			crew:         memory.NewCrewRepository(s),
			reports:      memory.NewReportRepository(s),
		}, nil

	case DriverPostgres, "":
		db, err := postgres.NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
				db.Close()
				return nil, err
			}
			logger.Info("マイグレーションを適用しました", zap.String("path", cfg.Database.MigrationsPath))
		}
		c.DB = db
		c.checks["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, db) }

		isolation := postgres.ParseIsolation(cfg.Booking.Isolation)
		return &repositories{
			tx:           postgres.NewTxManager(db, isolation, cfg.Booking.LockTimeout),
			flights:      postgres.NewFlightRepository(db),
			reservations: postgres.NewReservationRepository(db),
			planes:       postgres.NewPlaneRepository(db),
			crew:         postgres.NewCrewRepository(db),
			reports:      postgres.NewReportRepository(db),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Database.Driver)
}

// HealthChecks はヘルスチェック対象の依存先を返す
func (c *Components) HealthChecks() map[string]handler.HealthCheck {
	return c.checks
}

// Close は開いた接続を全て閉じる
func (c *Components) Close() {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logger.Warn("RabbitMQ切断エラー", zap.Error(err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warn("Redis切断エラー", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Warn("データベース切断エラー", zap.Error(err))
		}
	}
}
