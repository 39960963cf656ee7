package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-booking/internal/api/middleware"
	"github.com/sanosuguru/go-flight-booking/internal/config"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-booking/internal/server"
	"github.com/sanosuguru/go-flight-booking/internal/worker"
)

func main() {
	// .env があれば読み込む（既存の環境変数は上書きしない）
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn(".env の読み込みに失敗しました", zap.Error(err))
	}

	cfg := config.Load()
	logger.Init(cfg.Env)
	defer logger.Sync()

	m := metrics.Init()

	components, err := server.Build(cfg, m)
	if err != nil {
		logger.Fatal("初期化に失敗しました", zap.Error(err))
	}
	defer components.Close()

	e := server.NewEcho(components, prometheus.DefaultGatherer, middleware.LoadMetricsConfig())
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var auditor *worker.ConsistencyAuditor
	if cfg.Worker.AuditInterval > 0 {
		auditor = worker.NewConsistencyAuditor(components.Booking, m, cfg.Worker.AuditInterval)
		go auditor.Start(ctx)
	}

	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	if auditor != nil {
		auditor.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
